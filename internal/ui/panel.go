// Package ui implements the in-game debug panel: an immediate mode list
// of controls navigated with the keyboard and shown as a status line.
package ui

import (
	"strings"

	"lodterrain/internal/input"
	"lodterrain/internal/ui/widget"
)

// Controls is the input the panel reads each frame.
type Controls interface {
	JustPressed(action input.Action) bool
}

// Panel keeps widget state across frames, keyed by label. Scenes declare
// their controls every frame between Update and Finish.
type Panel struct {
	widgets map[string]widget.Component
	order   []widget.Component
	shown   int
	focus   int
	delta   int
}

func NewPanel() *Panel {
	return &Panel{widgets: make(map[string]widget.Component)}
}

// Update starts a frame: it moves the focus and latches the adjustment
// that the focused control receives this frame.
func (p *Panel) Update(in Controls) {
	p.order = p.order[:0]
	p.delta = 0

	if p.shown > 0 {
		if in.JustPressed(input.ActionUINext) {
			p.focus = (p.focus + 1) % p.shown
		}
		if in.JustPressed(input.ActionUIPrev) {
			p.focus = (p.focus - 1 + p.shown) % p.shown
		}
	}
	if in.JustPressed(input.ActionUIIncrease) {
		p.delta++
	}
	if in.JustPressed(input.ActionUIDecrease) {
		p.delta--
	}
}

// SliderInt shows an integer slider bound to value and reports whether
// the user changed it this frame.
func (p *Panel) SliderInt(label string, value *int, lo, hi int) bool {
	s, ok := p.widgets[label].(*widget.Slider)
	if !ok {
		s = widget.NewSlider(label, *value, lo, hi, nil)
		p.widgets[label] = s
	}
	s.SetRange(lo, hi)
	s.Value = max(s.Min, min(s.Max, *value))

	changed := p.register(s)
	*value = s.Value
	return changed
}

// Toggle shows an on/off switch bound to value.
func (p *Panel) Toggle(label string, value *bool) bool {
	tg, ok := p.widgets[label].(*widget.Toggle)
	if !ok {
		tg = widget.NewToggle(label, *value, nil)
		p.widgets[label] = tg
	}
	tg.IsOn = *value

	changed := p.register(tg)
	*value = tg.IsOn
	return changed
}

func (p *Panel) register(c widget.Component) bool {
	idx := len(p.order)
	p.order = append(p.order, c)
	if idx != p.focus || p.delta == 0 {
		return false
	}
	return c.Adjust(p.delta)
}

// Finish ends the frame. Controls not declared since Update are
// forgotten.
func (p *Panel) Finish() {
	p.shown = len(p.order)
	if p.focus >= p.shown {
		p.focus = 0
	}
	if len(p.widgets) == p.shown {
		return
	}
	live := make(map[string]widget.Component, p.shown)
	for _, c := range p.order {
		live[c.GetLabel()] = c
	}
	p.widgets = live
}

// Focused returns the label of the focused control, or "" when the
// panel is empty.
func (p *Panel) Focused() string {
	if p.focus >= len(p.order) {
		return ""
	}
	return p.order[p.focus].GetLabel()
}

// Status renders the controls of the last frame, marking the focused one.
func (p *Panel) Status() string {
	var b strings.Builder
	for i, c := range p.order {
		if i > 0 {
			b.WriteString(" | ")
		}
		if i == p.focus {
			b.WriteByte('>')
		}
		b.WriteString(c.Text())
	}
	return b.String()
}
