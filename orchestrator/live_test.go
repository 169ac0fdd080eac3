package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maastricht-university/affect-demo/face"
)

func appendFile(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		t.Fatal(err)
	}
}

func TestFollowerDrainsOnlyCompleteNewRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	f := newFollower(path, face.Options{Window: 2})

	var got []LiveEvent
	emit := func(e LiveEvent) { got = append(got, e) }

	if err := f.drain(emit); err != nil {
		t.Fatalf("drain before file exists: %v", err)
	}

	appendFile(t, path, feedHeader+"\n1, 0, 0.0, 0.95, 1, 0, 0, 0, 1, 0, 1, 0, 0, 0\n2, 0, 0.1, 0.2")
	if err := f.drain(emit); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 1 || got[0].Raw != face.Happy {
		t.Fatalf("expected one happy event, got %+v", got)
	}

	// finish the partial row (low confidence, dropped) and add two neutral frames
	appendFile(t, path, "0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0\n"+
		"3, 0, 0.2, 0.95, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0\n"+
		"4, 0, 0.3, 0.95, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0\n")
	if err := f.drain(emit); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %+v", got)
	}
	// window 2: [H,N] keeps Happy, [H,N,N] flips to Neutral
	if got[1].Smoothed != face.Happy || got[2].Smoothed != face.Neutral {
		t.Fatalf("unexpected smoothing %+v", got)
	}

	if err := f.drain(emit); err != nil || len(got) != 3 {
		t.Fatalf("expected no new events, got %+v %v", got, err)
	}
}

func TestFollowerRunStopsWhenDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	appendFile(t, path, feedHeader+"\n1, 0, 0.0, 0.95, 1, 1, 1, 0, 0, 0, 0, 0, 0, 1\n")

	done := make(chan struct{})
	close(done)
	var got []LiveEvent
	err := newFollower(path, face.Options{}).run(context.Background(), done, time.Hour, func(e LiveEvent) { got = append(got, e) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0].Smoothed != face.Surprised {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestFollowerRejectsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	appendFile(t, path, feedHeader+"\n1, 0, 0.0, 0.95, 1, 0, 0, x, 0, 0, 0, 0, 0, 0\n")
	err := newFollower(path, face.Options{}).drain(func(LiveEvent) {})
	if err == nil {
		t.Fatal("expected malformed row error")
	}
}

func TestLiveStopsWithContext(t *testing.T) {
	c := testConfig(t)
	ff := &fakeFace{feed: happyThenNeutral()}
	p, _ := newTestPipeline(t, c, &fakeServices{}, ff, fakeAudio{})

	ctx, cancel := context.WithCancel(context.Background())
	var n int
	err := p.Live(ctx, func(e LiveEvent) {
		n++
		if n == 10 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if n != 10 {
		t.Fatalf("expected 10 events, got %d", n)
	}
	select {
	case <-ff.started.Done():
	default:
		t.Fatal("expected OpenFace to be stopped")
	}
}
