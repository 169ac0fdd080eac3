package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "sessions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{
		ID:           "a",
		Kind:         KindFull,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:       "full_analysis.wav",
		VoiceEmotion: "Happy",
		TextEmotion:  "joy (0.90)",
		Transcript:   "hello",
		Status:       StatusOK,
		Segments: []Segment{
			{Start: 0, End: 0.5, Label: "Happy"},
			{Start: 0.6, End: 0.9, Label: "Neutral"},
		},
	}
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != KindFull || got.VoiceEmotion != "Happy" || !got.CreatedAt.Equal(sess.CreatedAt) {
		t.Fatalf("unexpected session %+v", got)
	}
	if len(got.Segments) != 2 || got.Segments[1].Label != "Neutral" || got.Segments[1].Start != 0.6 {
		t.Fatalf("unexpected segments %+v", got.Segments)
	}
}

func TestSaveDuplicateRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := &Session{ID: "dup", Kind: KindFace, CreatedAt: time.Now(), Status: StatusOK,
		Segments: []Segment{{Start: 0, End: 1, Label: "Sad"}}}
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSession(ctx, sess); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
	segs, err := s.Segments(ctx, "dup")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment after failed save, got %d", len(segs))
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := s.SaveSession(ctx, &Session{ID: id, Kind: KindFace, CreatedAt: base.Add(time.Duration(i) * time.Minute), Status: StatusEmpty})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	got, err := s.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Status != StatusEmpty {
		t.Fatalf("expected empty status, got %q", got[0].Status)
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
