package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maastricht-university/affect-demo/face"
	"github.com/maastricht-university/affect-demo/store"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func sessionTable(sessions []store.Session) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			string(s.Kind),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(s.Status),
			orDash(s.VoiceEmotion),
			orDash(s.TextEmotion),
		})
	}
	return renderTable(
		[]string{"Session", "Kind", "Created", "Status", "Voice", "Text"},
		rows,
		nil,
	)
}

func segmentTable(segs []store.Segment) string {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, []string{formatSeconds(s.Start), formatSeconds(s.End), s.Label})
	}
	return renderTable([]string{"Start", "End", "Emotion"}, rows, []columnAlignment{alignRight, alignRight, alignLeft})
}

func frameTable(rows []face.LabeledFrame) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{formatSeconds(r.Timestamp), string(r.Emotion), string(r.Smoothed)})
	}
	return renderTable([]string{"Timestamp", "Emotion", "Smoothed"}, out, []columnAlignment{alignRight})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
