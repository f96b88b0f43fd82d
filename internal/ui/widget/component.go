// Package widget holds the controls of the debug panel. Controls are
// keyboard driven: the panel focuses one at a time and nudges it.
package widget

// Component is a single panel control.
type Component interface {
	// Adjust nudges the control by delta steps and reports whether its
	// value changed.
	Adjust(delta int) bool
	// Text renders the control as a single status line fragment.
	Text() string
	GetLabel() string
}

type BaseComponent struct {
	Label string
}

func (b *BaseComponent) GetLabel() string { return b.Label }
