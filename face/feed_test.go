package face

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const openFaceHeader = "frame, face_id, timestamp, confidence, success, AU01_c, AU02_c, AU04_c, AU06_c, AU07_c, AU12_c, AU15_c, AU23_c, AU26_c"

func TestReadFeedStripsHeaderWhitespace(t *testing.T) {
	feed := openFaceHeader + "\n" +
		"1, 0, 0.000, 0.98, 1, 0, 0, 0, 1, 0, 1, 0, 0, 0\n" +
		"2, 0, 0.033, 0.50, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0\n" +
		"3, 0, 0.067, 0.97, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1\n"

	frames, err := ReadFeed(strings.NewReader(feed), Options{})
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if got := Classify(frames[0]); got != Happy {
		t.Fatalf("expected first frame %s, got %s", Happy, got)
	}
	if frames[1].Valid(DefaultMinConfidence) {
		t.Fatal("expected low-confidence frame to be invalid")
	}
	if frames[2].Success || frames[2].Timestamp != 0.067 {
		t.Fatalf("unexpected third frame %+v", frames[2])
	}
	if !frames[2].Units.Has(AU01, AU02, AU26) {
		t.Fatalf("expected surprise units on third frame, got %b", frames[2].Units)
	}
}

func TestReadFeedAcceptsFloatFlags(t *testing.T) {
	feed := "timestamp,success,confidence,AU01_c,AU02_c,AU04_c,AU06_c,AU07_c,AU12_c,AU15_c,AU23_c,AU26_c\n" +
		"0.5,1.0,0.9,0.00,0.00,1.00,0.00,1.00,0.00,0.00,1.00,0.00\n"
	frames, err := ReadFeed(strings.NewReader(feed), Options{})
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if !frames[0].Success || Classify(frames[0]) != Angry {
		t.Fatalf("unexpected frame %+v", frames[0])
	}
}

func TestReadFeedMissingColumn(t *testing.T) {
	feed := "timestamp, success, confidence, AU01_c\n0, 1, 0.9, 1\n"
	_, err := ReadFeed(strings.NewReader(feed), Options{})
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
	var mfe *MalformedFrameError
	if !errors.As(err, &mfe) || mfe.Column != "AU02_c" || mfe.Row != 0 {
		t.Fatalf("unexpected error detail %#v", err)
	}
}

func TestReadFeedMalformedRows(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		column string
	}{
		{"short row", "0.1, 0.9, 1, 0, 0", "AU04_c"},
		{"empty cell", "0.1, 0.9, 1, 0, 0, 0, , 0, 0, 0, 0, 0, 0", "AU06_c"},
		{"not a number", "0.1, 0.9, 1, 0, 0, 0, 0, 0, yes, 0, 0, 0, 0", "AU12_c"},
	}
	header := "timestamp, confidence, success, AU01_c, AU02_c, AU04_c, AU06_c, AU07_c, AU12_c, AU15_c, AU23_c, AU26_c, extra"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feed := header + "\n0.0, 0.9, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0\n" + tc.row + "\n"
			_, err := ReadFeed(strings.NewReader(feed), Options{})
			var mfe *MalformedFrameError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected MalformedFrameError, got %v", err)
			}
			if mfe.Row != 2 || mfe.Column != tc.column {
				t.Fatalf("expected row 2 column %s, got %+v", tc.column, mfe)
			}
		})
	}
}

func TestReadFeedSkipsBlankCellsInDroppedRows(t *testing.T) {
	header := "timestamp, success, confidence, AU01_c, AU02_c, AU04_c, AU06_c, AU07_c, AU12_c, AU15_c, AU23_c, AU26_c"
	feed := header + "\n" +
		"0.0, 1, 0.95, 0, 0, 0, 1, 0, 1, 0, 0, 0\n" +
		"0.1, 0, 0.00, , , , , , , , , \n" +
		"0.2, 1, , , , , , , , , , \n" +
		", , , , , , , , , , , \n" +
		"0.4, 1, 0.95, 0, 0, 0, 1, 0, 1, 0, 0, 0\n"

	frames, err := ReadFeed(strings.NewReader(feed), Options{})
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	tl, err := Build(frames, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tl.Dropped != 3 {
		t.Fatalf("expected 3 dropped frames, got %d", tl.Dropped)
	}
	want := "0.00s – 0.40s : Happy\n"
	if got := FormatTimeline(tl.Segments); got != want {
		t.Fatalf("expected timeline %q, got %q", want, got)
	}
}

func TestReadFeedStrictnessFollowsThreshold(t *testing.T) {
	header := "timestamp, success, confidence, AU01_c, AU02_c, AU04_c, AU06_c, AU07_c, AU12_c, AU15_c, AU23_c, AU26_c"
	feed := header + "\n0.0, 1, 0.6, 0, , 0, 0, 0, 0, 0, 0, 0\n"

	if _, err := ReadFeed(strings.NewReader(feed), Options{}); err != nil {
		t.Fatalf("expected low-confidence row to be skipped, got %v", err)
	}
	_, err := ReadFeed(strings.NewReader(feed), Options{MinConfidence: 0.5})
	var mfe *MalformedFrameError
	if !errors.As(err, &mfe) || mfe.Column != "AU02_c" || mfe.Row != 1 {
		t.Fatalf("expected AU02_c to be rejected on row 1, got %v", err)
	}
}

func TestFeedReaderStreamsRows(t *testing.T) {
	feed := openFaceHeader + "\n1, 0, 0.0, 0.9, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0\n"
	fr, err := NewFeedReader(strings.NewReader(feed), Options{})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if _, err := fr.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := fr.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if fr.Rows() != 1 {
		t.Fatalf("expected 1 row, got %d", fr.Rows())
	}
}

func TestLoadFeedUnavailable(t *testing.T) {
	_, err := LoadFeed(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFeed(empty, Options{}); !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable for empty file, got %v", err)
	}
}

func TestLoadFeedEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	rows := []string{openFaceHeader}
	for i := 0; i < 10; i++ {
		au := "0"
		if i < 3 {
			au = "1"
		}
		ts := fmt.Sprintf("%.1f", float64(i)/10)
		// AU06 and AU12 carry the smile
		rows = append(rows, fmt.Sprintf("%d, 0, %s, 0.95, 1, 0, 0, 0, %s, 0, %s, 0, 0, 0", i+1, ts, au, au))
	}
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	frames, err := LoadFeed(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tl, err := Build(frames, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "0.00s – 0.50s : Happy\n0.60s – 0.90s : Neutral\n"
	if got := FormatTimeline(tl.Segments); got != want {
		t.Fatalf("expected timeline %q, got %q", want, got)
	}
}
