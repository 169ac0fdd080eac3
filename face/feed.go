package face

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	colTimestamp  = "timestamp"
	colSuccess    = "success"
	colConfidence = "confidence"
)

// FeedReader decodes an OpenFace CSV feed row by row.
// Rows that fail the validity check are returned without strict parsing:
// blank or unparsable cells in them are ignored, since they are never classified.
type FeedReader struct {
	r       *csv.Reader
	cols    map[string]int
	row     int
	minConf float64
}

// NewFeedReader reads the header and checks that every required column is present.
// Column names are trimmed of surrounding whitespace before lookup.
func NewFeedReader(r io.Reader, opts Options) (*FeedReader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: feed has no header", ErrFeedUnavailable)
		}
		return nil, fmt.Errorf("read feed header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range requiredColumns() {
		if _, ok := cols[name]; !ok {
			return nil, &MalformedFrameError{Column: name}
		}
	}
	return &FeedReader{r: cr, cols: cols, minConf: opts.Normalize().MinConfidence}, nil
}

func requiredColumns() []string {
	out := []string{colTimestamp, colSuccess, colConfidence}
	for _, u := range Units {
		out = append(out, u.Column)
	}
	return out
}

// Next returns the next frame, or io.EOF when the feed is exhausted.
func (fr *FeedReader) Next() (Frame, error) {
	rec, err := fr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read feed row %d: %w", fr.row+1, err)
	}
	fr.row++

	var f Frame
	success, ok, err := fr.cell(rec, colSuccess)
	if err != nil {
		return Frame{}, err
	}
	f.Success = ok && success == 1
	// a blank confidence leaves 0, which never passes the check
	if f.Confidence, _, err = fr.cell(rec, colConfidence); err != nil {
		return Frame{}, err
	}

	if !f.Valid(fr.minConf) {
		f.Timestamp, _, _ = fr.cell(rec, colTimestamp)
		for _, u := range Units {
			if v, ok, err := fr.cell(rec, u.Column); err == nil && ok && v == 1 {
				f.Units = f.Units.With(u.Unit)
			}
		}
		return f, nil
	}

	if f.Timestamp, err = fr.float(rec, colTimestamp); err != nil {
		return Frame{}, err
	}
	for _, u := range Units {
		v, err := fr.float(rec, u.Column)
		if err != nil {
			return Frame{}, err
		}
		if v == 1 {
			f.Units = f.Units.With(u.Unit)
		}
	}
	return f, nil
}

// Rows reports how many data rows have been read so far.
func (fr *FeedReader) Rows() int { return fr.row }

// float parses a cell that must be present and numeric.
func (fr *FeedReader) float(rec []string, col string) (float64, error) {
	v, ok, err := fr.cell(rec, col)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &MalformedFrameError{Row: fr.row, Column: col}
	}
	return v, nil
}

// cell parses col of rec. A blank or absent cell reports ok false.
func (fr *FeedReader) cell(rec []string, col string) (v float64, ok bool, err error) {
	i := fr.cols[col]
	if i >= len(rec) {
		return 0, false, nil
	}
	raw := strings.TrimSpace(rec[i])
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, &MalformedFrameError{Row: fr.row, Column: col, Value: raw}
	}
	return v, true, nil
}

// ReadFeed decodes every row of a feed in file order. opts.MinConfidence
// decides which rows are parsed strictly and should match the one given to Build.
func ReadFeed(r io.Reader, opts Options) ([]Frame, error) {
	fr, err := NewFeedReader(r, opts)
	if err != nil {
		return nil, err
	}
	var frames []Frame
	for {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// LoadFeed reads the feed stored at path.
func LoadFeed(path string, opts Options) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer f.Close()
	return ReadFeed(f, opts)
}
