package clients

import "context"

// --- Speech emotion recognition (/predict) ---
type SERResp struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// serLabels maps the IEMOCAP short codes the SER model emits to display labels.
var serLabels = map[string]string{
	"hap": "Happy",
	"ang": "Angry",
	"neu": "Neutral",
	"sad": "Sad",
}

// VoiceLabel translates a raw SER label. Unknown labels pass through unchanged.
func VoiceLabel(raw string) string {
	if l, ok := serLabels[raw]; ok {
		return l
	}
	return raw
}

func (h *HTTP) SER(ctx context.Context, url, wavPath string) (*SERResp, error) {
	var out SERResp
	if err := h.postFile(ctx, "ser", url+"/predict", wavPath, &out); err != nil {
		return nil, err
	}
	out.Label = VoiceLabel(out.Label)
	return &out, nil
}
