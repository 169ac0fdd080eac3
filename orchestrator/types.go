package orchestrator

import (
	"time"

	"github.com/maastricht-university/affect-demo/clients"
	"github.com/maastricht-university/affect-demo/face"
	"github.com/maastricht-university/affect-demo/store"
)

// NotAvailable marks a report field whose analyzer failed or was skipped.
const NotAvailable = "N/A"

// FaceResult is the outcome of one face analysis pass.
type FaceResult struct {
	CSV      string         `yaml:"csv"`
	Empty    bool           `yaml:"empty"`
	Frames   int            `yaml:"frames"`
	Dropped  int            `yaml:"dropped"`
	Dominant face.Label     `yaml:"dominant,omitempty"`
	Segments []face.Segment `yaml:"segments"`
	// FrameTable and TimelineFile are the written artifacts; empty for an empty session.
	FrameTable   string `yaml:"frame_table,omitempty"`
	TimelineFile string `yaml:"timeline_file,omitempty"`
	Chart        string `yaml:"chart,omitempty"`

	timeline *face.Timeline
}

// TimelineText renders the segments as the human-readable timeline.
func (r *FaceResult) TimelineText() string {
	if r == nil {
		return ""
	}
	return face.FormatTimeline(r.Segments)
}

// Rows returns the filtered per-frame table, nil for an empty session.
func (r *FaceResult) Rows() []face.LabeledFrame {
	if r == nil || r.timeline == nil {
		return nil
	}
	return r.timeline.Frames
}

// Report collects everything one run produced.
type Report struct {
	SessionID    string             `yaml:"session_id"`
	Kind         store.Kind         `yaml:"kind"`
	CreatedAt    time.Time          `yaml:"created_at"`
	Dir          string             `yaml:"dir"`
	Audio        string             `yaml:"audio,omitempty"`
	VoiceEmotion string             `yaml:"voice_emotion,omitempty"`
	Transcript   string             `yaml:"transcript,omitempty"`
	TextEmotions []clients.EmoScore `yaml:"text_emotions,omitempty"`
	TextEmotion  string             `yaml:"text_emotion,omitempty"`
	Face         *FaceResult        `yaml:"face,omitempty"`
}

func (r *Report) record() *store.Session {
	sess := &store.Session{
		ID:           r.SessionID,
		Kind:         r.Kind,
		CreatedAt:    r.CreatedAt,
		Source:       r.Audio,
		VoiceEmotion: r.VoiceEmotion,
		TextEmotion:  r.TextEmotion,
		Transcript:   r.Transcript,
		Status:       store.StatusOK,
	}
	if r.Face != nil {
		if sess.Source == "" {
			sess.Source = r.Face.CSV
		}
		if r.Face.Empty {
			sess.Status = store.StatusEmpty
		}
		for _, s := range r.Face.Segments {
			sess.Segments = append(sess.Segments, store.Segment{Start: s.Start, End: s.End, Label: string(s.Label)})
		}
	}
	return sess
}
