package profiling

import (
	"testing"
	"time"
)

func TestTopOrdersBySlowest(t *testing.T) {
	ResetFrame()
	t.Cleanup(ResetFrame)

	Add("terrain.Draw", 4200*time.Microsecond)
	Add("frame.Poll", 300*time.Microsecond)
	Add("terrain.Update", 1*time.Millisecond)
	Add("terrain.Draw", 0)

	top := Top(2)
	if len(top) != 2 || top[0].Name != "terrain.Draw" || top[1].Name != "terrain.Update" {
		t.Fatalf("Top(2) = %+v", top)
	}
	if got := TopN(5); got != "terrain.Draw:4.2ms, terrain.Update:1ms, frame.Poll:0.3ms" {
		t.Fatalf("TopN = %q", got)
	}
	if got := SumWithPrefix("terrain."); got != 5200*time.Microsecond {
		t.Fatalf("SumWithPrefix = %v", got)
	}
	if len(Fields(10)) != 3 {
		t.Fatalf("Fields = %v", Fields(10))
	}
}

func TestTrackAccumulates(t *testing.T) {
	ResetFrame()
	t.Cleanup(ResetFrame)

	for range 3 {
		stop := Track("loop")
		time.Sleep(time.Millisecond)
		stop()
	}
	if got := Snapshot()["loop"]; got < 3*time.Millisecond {
		t.Fatalf("loop total = %v", got)
	}
	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Fatal("ResetFrame kept entries")
	}
}

func TestFormatMs(t *testing.T) {
	tests := map[time.Duration]string{
		0:                        "0ms",
		2 * time.Millisecond:     "2ms",
		1250 * time.Microsecond:  "1.3ms",
		16666 * time.Microsecond: "16.7ms",
	}
	for d, want := range tests {
		if got := formatMs(d); got != want {
			t.Errorf("formatMs(%v) = %q, want %q", d, got, want)
		}
	}
}
