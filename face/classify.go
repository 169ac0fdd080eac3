package face

// Rules are evaluated top to bottom; the first match wins.
var rules = []struct {
	units []ActionUnit
	label Label
}{
	{[]ActionUnit{AU12, AU06}, Happy},
	{[]ActionUnit{AU04, AU07, AU23}, Angry},
	{[]ActionUnit{AU01, AU04, AU15}, Sad},
	{[]ActionUnit{AU01, AU02, AU26}, Surprised},
}

// Classify maps a frame's action units to a single emotion label.
func Classify(f Frame) Label {
	for _, r := range rules {
		if f.Units.Has(r.units...) {
			return r.label
		}
	}
	return Neutral
}
