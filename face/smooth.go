package face

// DefaultWindow is how many previous labels join the current one in a vote.
const DefaultWindow = 10

// Smoother computes a trailing majority vote one label at a time.
// The vote at each step covers the current label and up to window previous ones.
type Smoother struct {
	window int
	buf    []Label
}

func NewSmoother(window int) *Smoother {
	if window < 0 {
		window = 0
	}
	return &Smoother{window: window, buf: make([]Label, 0, window+1)}
}

// Push adds the next raw label and returns the smoothed label for it.
func (s *Smoother) Push(l Label) Label {
	if len(s.buf) == s.window+1 {
		copy(s.buf, s.buf[1:])
		s.buf = s.buf[:s.window]
	}
	s.buf = append(s.buf, l)
	return majority(s.buf)
}

func (s *Smoother) Reset() { s.buf = s.buf[:0] }

// majority returns the most frequent label. On equal counts the label that
// appears first in vals wins.
func majority(vals []Label) Label {
	counts := make(map[Label]int, len(Labels))
	order := make([]Label, 0, len(Labels))
	for _, v := range vals {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	var best Label
	bestN := 0
	for _, l := range order {
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return best
}

// Smooth returns one smoothed label per input label, same indexing.
func Smooth(labels []Label, window int) []Label {
	s := NewSmoother(window)
	out := make([]Label, len(labels))
	for i, l := range labels {
		out[i] = s.Push(l)
	}
	return out
}
