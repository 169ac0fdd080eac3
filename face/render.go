package face

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatTimeline renders one newline-terminated line per segment.
func FormatTimeline(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "%.2fs – %.2fs : %s\n", s.Start, s.End, s.Label)
	}
	return b.String()
}

// WriteFrameTable writes the filtered per-frame table as CSV.
func WriteFrameTable(w io.Writer, rows []LabeledFrame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "emotion", "smooth_emotion"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatFloat(r.Timestamp, 'f', -1, 64),
			string(r.Emotion),
			string(r.Smoothed),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
