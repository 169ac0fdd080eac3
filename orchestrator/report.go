package orchestrator

import (
	"fmt"
	"io"
	"strings"

	"github.com/maastricht-university/affect-demo/store"
)

var rule = strings.Repeat("=", 50)

var titles = map[store.Kind]string{
	store.KindFace:       "FACE EXPRESSION REPORT",
	store.KindVoice:      "VOICE EMOTION REPORT",
	store.KindTranscribe: "STT ANALYSIS REPORT",
	store.KindFull:       "FULL ANALYSIS REPORT",
}

// WriteReport renders the human-readable summary of a run.
func WriteReport(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", rule, titles[r.Kind], rule)
	if r.Kind == store.KindVoice || r.Kind == store.KindFull {
		fmt.Fprintf(&b, "Voice Emotion : %s\n", r.VoiceEmotion)
	}
	if r.Kind == store.KindTranscribe || r.Kind == store.KindFull {
		text := r.TextEmotion
		if text == "" {
			text = "Could not determine"
		}
		fmt.Fprintf(&b, "Text Emotion  : %s\n", text)
		fmt.Fprintf(&b, "Transcription : %q\n", r.Transcript)
	}
	fmt.Fprintf(&b, "Session       : %s\n%s\n", r.SessionID, rule)

	if r.Kind == store.KindFace || r.Kind == store.KindFull {
		switch {
		case r.Face == nil:
			b.WriteString("\nNo Face Expression Data available.\n")
		case r.Face.Empty:
			fmt.Fprintf(&b, "\nNo usable face data: all %d frames failed the confidence check.\n", r.Face.Dropped)
		default:
			fmt.Fprintf(&b, "\nFace Expression Timeline (dominant: %s):\n%s%s\n", r.Face.Dominant, r.Face.TimelineText(), rule)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
