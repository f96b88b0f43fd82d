package widget

import "strconv"

// Slider is an integer control over [Min, Max].
type Slider struct {
	BaseComponent
	Value    int
	Min, Max int
	OnChange func(val int)
}

func NewSlider(label string, initial, lo, hi int, onChange func(val int)) *Slider {
	s := &Slider{
		BaseComponent: BaseComponent{Label: label},
		OnChange:      onChange,
	}
	s.SetRange(lo, hi)
	s.Value = s.clamp(initial)
	return s
}

// SetRange replaces the bounds and pulls Value inside them. A reversed
// range is swapped.
func (s *Slider) SetRange(lo, hi int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	s.Min, s.Max = lo, hi
	s.Value = s.clamp(s.Value)
}

func (s *Slider) Adjust(delta int) bool {
	next := s.clamp(s.Value + delta)
	if next == s.Value {
		return false
	}
	s.Value = next
	if s.OnChange != nil {
		s.OnChange(s.Value)
	}
	return true
}

func (s *Slider) Text() string {
	return s.Label + " " + strconv.Itoa(s.Value) + "/" + strconv.Itoa(s.Max)
}

func (s *Slider) clamp(v int) int {
	return max(s.Min, min(s.Max, v))
}
