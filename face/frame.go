package face

// DefaultMinConfidence is the tracker confidence a frame must exceed to be classified.
const DefaultMinConfidence = 0.8

type Label string

const (
	Happy     Label = "Happy"
	Angry     Label = "Angry"
	Sad       Label = "Sad"
	Surprised Label = "Surprised"
	Neutral   Label = "Neutral"
)

// Labels lists every label Classify can produce.
var Labels = []Label{Happy, Angry, Sad, Surprised, Neutral}

// ActionUnit is a bit in an ActionUnits set.
type ActionUnit uint16

const (
	AU01 ActionUnit = 1 << iota
	AU02
	AU04
	AU06
	AU07
	AU12
	AU15
	AU23
	AU26
)

// ActionUnits holds the presence flags of one frame.
type ActionUnits uint16

// Has reports whether every unit in want is present.
func (a ActionUnits) Has(want ...ActionUnit) bool {
	for _, u := range want {
		if ActionUnits(u)&a == 0 {
			return false
		}
	}
	return true
}

func (a ActionUnits) With(u ...ActionUnit) ActionUnits {
	for _, x := range u {
		a |= ActionUnits(x)
	}
	return a
}

// Units maps OpenFace presence columns to their action unit.
var Units = []struct {
	Column string
	Unit   ActionUnit
}{
	{"AU01_c", AU01},
	{"AU02_c", AU02},
	{"AU04_c", AU04},
	{"AU06_c", AU06},
	{"AU07_c", AU07},
	{"AU12_c", AU12},
	{"AU15_c", AU15},
	{"AU23_c", AU23},
	{"AU26_c", AU26},
}

type Frame struct {
	Timestamp  float64
	Success    bool
	Confidence float64
	Units      ActionUnits
}

// Valid reports whether the tracker judged the frame usable.
func (f Frame) Valid(minConfidence float64) bool {
	return f.Success && f.Confidence > minConfidence
}

type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Label Label   `json:"label" yaml:"label"`
}

// LabeledFrame is one row of the filtered per-frame table.
type LabeledFrame struct {
	Timestamp float64 `json:"timestamp"`
	Emotion   Label   `json:"emotion"`
	Smoothed  Label   `json:"smooth_emotion"`
}
