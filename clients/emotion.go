package clients

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// --- Text emotion (/detect) ---
type EmoReq struct {
	Text string `json:"text"`
}
type EmoScore struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}
type EmoResp struct {
	Emotions        []EmoScore `json:"emotions"`
	DominantEmotion string     `json:"dominant_emotion"`
}

// TextEmotion scores text against the multi-label emotion model and keeps
// labels scoring above threshold, highest first. Blank text is not sent.
func (h *HTTP) TextEmotion(ctx context.Context, url, text string, threshold float64) ([]EmoScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var out EmoResp
	if err := h.postJSON(ctx, "emotion", url+"/detect", EmoReq{Text: text}, &out); err != nil {
		return nil, err
	}
	kept := make([]EmoScore, 0, len(out.Emotions))
	for _, e := range out.Emotions {
		if e.Score > threshold {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	return kept, nil
}

// FormatScores renders scores as "joy (0.90), excitement (0.45)".
func FormatScores(scores []EmoScore) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%s (%.2f)", s.Label, s.Score)
	}
	return strings.Join(parts, ", ")
}
