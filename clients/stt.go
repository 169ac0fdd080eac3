package clients

import (
	"context"
	"strings"
)

// --- Speech to text (/transcribe) ---
type TransSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
type STTResp struct {
	Text     string     `json:"text"`
	Segments []TransSeg `json:"segments"`
	Language string     `json:"language"`
}

func (h *HTTP) Transcribe(ctx context.Context, url, wavPath string) (*STTResp, error) {
	var out STTResp
	if err := h.postFile(ctx, "stt", url+"/transcribe", wavPath, &out); err != nil {
		return nil, err
	}
	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" && len(out.Segments) > 0 {
		parts := make([]string, 0, len(out.Segments))
		for _, s := range out.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		out.Text = strings.Join(parts, " ")
	}
	return &out, nil
}
