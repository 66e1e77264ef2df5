package engine

import (
	"reflect"
	"testing"
)

// fixedRandom always rolls the same value and picks the same index
type fixedRandom struct {
	roll float64
	pick int
}

func (r *fixedRandom) Float64() float64 { return r.roll }

func (r *fixedRandom) Intn(n int) int {
	if r.pick >= n {
		return n - 1
	}
	return r.pick
}

// flatLayout is 8 wide and 6 tall with dirt at row 4 and stone at row 5
var flatLayout = []string{
	"........",
	"........",
	"........",
	"........",
	"DDDDDDDD",
	"SSSSSSSS",
}

func newTestWorld(t *testing.T, layout ...string) *WorldState {
	t.Helper()
	if len(layout) == 0 {
		layout = flatLayout
	}
	grid, err := GridFromLayout(layout)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	ws := &WorldState{
		Grid:          grid,
		Machines:      []*Machine{},
		NextMachineID: 1,
	}
	ws.bind(DefaultRules(), &fixedRandom{roll: 1})
	return ws
}

func addVehicle(ws *WorldState, x, y int, cargo BlockKind) *Machine {
	v := &Machine{Kind: KindVehicle, X: x, Y: y}
	v.Cargo.Put(cargo)
	return ws.addMachine(v)
}

func addCrane(ws *WorldState, x, baseY, hookY int, base, hook BlockKind) *Machine {
	c := &Machine{Kind: KindCrane, X: x, Y: baseY, HookY: hookY}
	c.Base.Put(base)
	c.Hook.Put(hook)
	return ws.addMachine(c)
}

type worldSnapshot struct {
	grid     Grid
	machines []Machine
	wood     int
	ops      int
}

func snapshot(ws *WorldState) worldSnapshot {
	s := worldSnapshot{grid: ws.Grid.Clone(), wood: ws.Wood, ops: ws.OperationCount}
	for _, m := range ws.Machines {
		s.machines = append(s.machines, *m)
	}
	return s
}

// assertUnchanged fails when grid, machines, wood or the counter moved
func assertUnchanged(t *testing.T, before worldSnapshot, ws *WorldState) {
	t.Helper()
	after := snapshot(ws)
	if !reflect.DeepEqual(before.grid, after.grid) {
		t.Errorf("Grid changed after failed operation")
	}
	if !reflect.DeepEqual(before.machines, after.machines) {
		t.Errorf("Machines changed after failed operation: %+v -> %+v", before.machines, after.machines)
	}
	if before.wood != after.wood {
		t.Errorf("Wood changed after failed operation: %d -> %d", before.wood, after.wood)
	}
	if before.ops != after.ops {
		t.Errorf("Operation count changed after failed operation: %d -> %d", before.ops, after.ops)
	}
}

// assertInvariants checks slot consistency and hook bounds for every machine
func assertInvariants(t *testing.T, ws *WorldState) {
	t.Helper()
	checkSlot := func(m *Machine, name string, s Slot) {
		if s.Loaded != (s.Block != "" && s.Block != Air) {
			t.Errorf("%s %d %s slot inconsistent: %+v", m.Kind, m.ID, name, s)
		}
	}
	for _, m := range ws.Machines {
		switch m.Kind {
		case KindVehicle:
			checkSlot(m, "cargo", m.Cargo)
		case KindCrane:
			checkSlot(m, "base", m.Base)
			checkSlot(m, "hook", m.Hook)
			if m.HookY < m.Y || m.HookY >= ws.Grid.Height() {
				t.Errorf("crane %d hook row %d outside [%d, %d)", m.ID, m.HookY, m.Y, ws.Grid.Height())
			}
		}
	}
}

func expectFailure(t *testing.T, res Result, category FailureCategory, reason Reason) {
	t.Helper()
	if res.Success {
		t.Fatalf("Expected failure %s/%s, got success: %s", category, reason, res.Message)
	}
	if res.Category != category || res.Reason != reason {
		t.Errorf("Expected %s/%s, got %s/%s (%s)", category, reason, res.Category, res.Reason, res.Message)
	}
	if res.Changed {
		t.Error("Failed result should not report a change")
	}
	if res.Message == "" {
		t.Error("Failed result should carry a message")
	}
}

func expectSuccess(t *testing.T, res Result) {
	t.Helper()
	if !res.Success {
		t.Fatalf("Expected success, got %s/%s: %s", res.Category, res.Reason, res.Message)
	}
	if !res.Changed {
		t.Error("Successful result should report a change")
	}
}
