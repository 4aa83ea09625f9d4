package input

import (
	"testing"

	"BSnake/game"
	"BSnake/store"
)

// fakeTarget records calls and accepts every heading, so the controller's own
// reversal filter is what gets tested.
type fakeTarget struct {
	status  game.RunStatus
	heading game.Heading
	starts  int
	sets    []game.Heading
}

func (f *fakeTarget) Status() game.RunStatus { return f.status }
func (f *fakeTarget) Heading() game.Heading  { return f.heading }
func (f *fakeTarget) Start()                 { f.starts++; f.status = game.Running; f.heading = game.None }
func (f *fakeTarget) SetHeading(h game.Heading) bool {
	f.sets = append(f.sets, h)
	f.heading = h
	return true
}

func TestSymbolize(t *testing.T) {
	c := NewController(&fakeTarget{})

	tests := []struct {
		name string
		in   []byte
		want Symbol
	}{
		{name: "arrow up", in: []byte{27, 91, 65}, want: Up},
		{name: "arrow right", in: []byte{27, 91, 67}, want: Right},
		{name: "arrow down", in: []byte{27, 91, 66}, want: Down},
		{name: "arrow left", in: []byte{27, 91, 68}, want: Left},
		{name: "w", in: []byte{'w', 0, 0}, want: Up},
		{name: "a", in: []byte{'a', 0, 0}, want: Left},
		{name: "s", in: []byte{'s', 0, 0}, want: Down},
		{name: "d", in: []byte{'d', 0, 0}, want: Right},
		{name: "vim k", in: []byte{'k', 0, 0}, want: Up},
		{name: "vim l", in: []byte{'l', 0, 0}, want: Right},
		{name: "vim j", in: []byte{'j', 0, 0}, want: Down},
		{name: "vim h", in: []byte{'h', 0, 0}, want: Left},
		{name: "return", in: []byte{13, 0, 0}, want: Confirm},
		{name: "space short read", in: []byte{32}, want: Confirm},
		{name: "escape", in: []byte{27, 0, 0}, want: Unknown},
		{name: "empty", in: nil, want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Symbolize(tt.in); got != tt.want {
				t.Errorf("Symbolize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSymbol(t *testing.T) {
	for _, s := range []string{"up", "DOWN", " left ", "right", "start", "confirm"} {
		if _, ok := ParseSymbol(s); !ok {
			t.Errorf("ParseSymbol(%q) rejected", s)
		}
	}
	if sym, ok := ParseSymbol("north"); ok || sym != Unknown {
		t.Errorf("ParseSymbol(north) = %v, %v", sym, ok)
	}
}

func TestConfirmStartsOnlyWhenNotRunning(t *testing.T) {
	target := &fakeTarget{status: game.Idle}
	c := NewController(target)

	if !c.HandleSymbol(Confirm) || target.starts != 1 {
		t.Fatalf("confirm while idle did not start, starts = %d", target.starts)
	}
	if c.HandleSymbol(Confirm) || target.starts != 1 {
		t.Errorf("confirm while running restarted, starts = %d", target.starts)
	}

	target.status = game.Over
	if !c.HandleInput([]byte{13, 0, 0}) || target.starts != 2 {
		t.Errorf("return after game over did not restart, starts = %d", target.starts)
	}
}

func TestDirectionsFilteredBeforeForwarding(t *testing.T) {
	target := &fakeTarget{status: game.Idle}
	c := NewController(target)

	if c.HandleSymbol(Up) || len(target.sets) != 0 {
		t.Error("direction forwarded while idle")
	}

	target.status = game.Running
	if !c.HandleSymbol(Down) {
		t.Fatal("first direction rejected")
	}
	if c.HandleSymbol(Up) {
		t.Error("reversal accepted")
	}
	if !c.HandleInput([]byte{27, 91, 68}) {
		t.Error("perpendicular arrow rejected")
	}

	want := []game.Heading{game.Down, game.Left}
	if len(target.sets) != len(want) || target.sets[0] != want[0] || target.sets[1] != want[1] {
		t.Errorf("forwarded headings = %v, want %v", target.sets, want)
	}
}

func TestControllerDrivesEngine(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.GridSize = 10
	cfg.Start = game.DefaultStart(10)
	cfg.Seed = 1

	e, err := game.NewEngine(cfg, store.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := NewController(e)

	c.HandleSymbol(Confirm)
	if e.Status() != game.Running {
		t.Fatalf("status = %v, want running", e.Status())
	}

	c.HandleSymbol(Down)
	c.HandleSymbol(Up)
	if e.Heading() != game.Down {
		t.Errorf("heading = %v, want down", e.Heading())
	}

	before := e.Snapshot().Head()
	after := e.Tick().Head()
	if after != before.Add(0, 1) {
		t.Errorf("head moved %v -> %v, want one cell down", before, after)
	}
}
