package widget

import "testing"

func TestSliderClampsAndNotifies(t *testing.T) {
	var got []int
	s := NewSlider("LOD", 9, 0, 4, func(v int) { got = append(got, v) })
	if s.Value != 4 {
		t.Fatalf("initial value not clamped: %d", s.Value)
	}
	if s.Adjust(1) {
		t.Fatal("adjust past max reported a change")
	}
	if !s.Adjust(-3) || s.Value != 1 {
		t.Fatalf("value = %d, want 1", s.Value)
	}
	if s.Adjust(-5); s.Value != 0 {
		t.Fatalf("value = %d, want 0", s.Value)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Fatalf("OnChange calls = %v", got)
	}
	if s.Text() != "LOD 0/4" {
		t.Fatalf("Text() = %q", s.Text())
	}
}

func TestSliderSetRange(t *testing.T) {
	s := NewSlider("x", 5, 0, 10, nil)
	s.SetRange(8, 2)
	if s.Min != 2 || s.Max != 8 || s.Value != 5 {
		t.Fatalf("slider = %+v", s)
	}
	s.SetRange(0, 3)
	if s.Value != 3 {
		t.Fatalf("value = %d, want 3", s.Value)
	}
}

func TestToggle(t *testing.T) {
	var last bool
	tg := NewToggle("culling", true, func(on bool) { last = on })
	if tg.Adjust(0) {
		t.Fatal("zero delta flipped toggle")
	}
	if !tg.Adjust(-1) || tg.IsOn || last {
		t.Fatal("toggle did not flip off")
	}
	if tg.Text() != "culling off" {
		t.Fatalf("Text() = %q", tg.Text())
	}
	var c Component = tg
	if c.GetLabel() != "culling" {
		t.Fatal("label lost")
	}
}
