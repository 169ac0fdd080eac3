package face

// Options tunes Build. Zero values fall back to the defaults.
type Options struct {
	Window        int
	MinConfidence float64
}

// Normalize fills zero fields with the defaults.
func (o Options) Normalize() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	return o
}

// Timeline is the result of one analysis pass.
type Timeline struct {
	Frames   []LabeledFrame
	Segments []Segment
	// Dropped counts frames that failed the validity check.
	Dropped int
}

// Build filters frames, classifies and smooths them and collapses the result
// into segments. When no frame is valid it returns a timeline with no
// segments together with ErrEmptySession.
func Build(frames []Frame, opts Options) (*Timeline, error) {
	opts = opts.Normalize()

	tl := &Timeline{}
	s := NewSmoother(opts.Window)
	for _, f := range frames {
		if !f.Valid(opts.MinConfidence) {
			tl.Dropped++
			continue
		}
		raw := Classify(f)
		tl.Frames = append(tl.Frames, LabeledFrame{
			Timestamp: f.Timestamp,
			Emotion:   raw,
			Smoothed:  s.Push(raw),
		})
	}
	if len(tl.Frames) == 0 {
		return tl, ErrEmptySession
	}
	tl.Segments = Segments(tl.Frames)
	return tl, nil
}

// Segments collapses runs of equal smoothed labels. Each segment spans the
// timestamps of the first and last frame of its run.
func Segments(rows []LabeledFrame) []Segment {
	if len(rows) == 0 {
		return nil
	}
	var out []Segment
	cur := rows[0].Smoothed
	start := rows[0].Timestamp
	for i := 1; i < len(rows); i++ {
		if rows[i].Smoothed != cur {
			out = append(out, Segment{Start: start, End: rows[i-1].Timestamp, Label: cur})
			cur = rows[i].Smoothed
			start = rows[i].Timestamp
		}
	}
	return append(out, Segment{Start: start, End: rows[len(rows)-1].Timestamp, Label: cur})
}

// Dominant returns the label covering the most frames, or Neutral for an empty table.
func (t *Timeline) Dominant() Label {
	if t == nil || len(t.Frames) == 0 {
		return Neutral
	}
	vals := make([]Label, len(t.Frames))
	for i, f := range t.Frames {
		vals[i] = f.Smoothed
	}
	return majority(vals)
}
