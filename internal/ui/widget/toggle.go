package widget

type Toggle struct {
	BaseComponent
	IsOn     bool
	OnToggle func(isOn bool)
}

func NewToggle(label string, initial bool, onToggle func(isOn bool)) *Toggle {
	return &Toggle{
		BaseComponent: BaseComponent{Label: label},
		IsOn:          initial,
		OnToggle:      onToggle,
	}
}

// Adjust flips the toggle for any non-zero delta.
func (t *Toggle) Adjust(delta int) bool {
	if delta == 0 {
		return false
	}
	t.IsOn = !t.IsOn
	if t.OnToggle != nil {
		t.OnToggle(t.IsOn)
	}
	return true
}

func (t *Toggle) Text() string {
	if t.IsOn {
		return t.Label + " on"
	}
	return t.Label + " off"
}
