package engine

import (
	"math/rand"
	"time"
)

// Random is the source used by tree growth
type Random interface {
	Float64() float64
	Intn(n int) int
}

// Rules are the tunables a world runs with
type Rules struct {
	VehicleCost int
	CraneCost   int
	Growth      GrowthConfig
}

// DefaultRules returns the classic costs and growth settings
func DefaultRules() *Rules {
	return &Rules{
		VehicleCost: DefaultVehicleCost,
		CraneCost:   DefaultCraneCost,
		Growth:      DefaultGrowthConfig(),
	}
}

// NewRandom returns a seeded source; a zero seed uses the clock
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (ws *WorldState) bind(rules *Rules, rng Random) {
	if rules == nil {
		rules = DefaultRules()
	}
	if rng == nil {
		rng = NewRandom(0)
	}
	ws.rules = rules
	ws.rng = rng
}

// SetRandom replaces the growth random source
func (ws *WorldState) SetRandom(rng Random) {
	ws.rng = rng
}

// Rules returns the tunables bound to the world
func (ws *WorldState) Rules() *Rules {
	if ws.rules == nil {
		ws.rules = DefaultRules()
	}
	return ws.rules
}

// tick counts a successful operation and runs the growth check when due
func (ws *WorldState) tick(res *Result) {
	ws.OperationCount++

	interval := ws.Rules().Growth.Interval
	if interval <= 0 || ws.OperationCount%interval != 0 {
		return
	}
	if pos, grown := ws.tryGrowTree(); grown {
		res.TreeGrown = &pos
		res.Message += " " + TreeGrownMessage
	}
}

// refresh recomputes the derived views carried in the state
func (ws *WorldState) refresh() {
	ws.Overlaps = ws.DetectOverlaps()
	ws.TreeCount = ws.Grid.Count(Tree)
	ws.Width = ws.Grid.Width()
	ws.Height = ws.Grid.Height()
}

// Clone returns a deep copy; the random source and rules are shared
func (ws *WorldState) Clone() *WorldState {
	out := *ws
	out.Grid = ws.Grid.Clone()
	out.Machines = make([]*Machine, len(ws.Machines))
	for i, m := range ws.Machines {
		copied := *m
		out.Machines[i] = &copied
	}
	out.History = append([]HistoryEntry(nil), ws.History...)
	out.CurrentActions = append([]HistoryEntry(nil), ws.CurrentActions...)
	out.Overlaps = append([]Overlap(nil), ws.Overlaps...)
	return &out
}

// removeMachine drops a machine from the registry keeping the order of the rest
func (ws *WorldState) removeMachine(id MachineID) {
	for i, m := range ws.Machines {
		if m.ID == id {
			ws.Machines = append(ws.Machines[:i], ws.Machines[i+1:]...)
			return
		}
	}
}

// addMachine appends a machine with a fresh ID
func (ws *WorldState) addMachine(m *Machine) *Machine {
	if ws.NextMachineID < 1 {
		ws.NextMachineID = 1
	}
	for _, existing := range ws.Machines {
		if existing.ID >= ws.NextMachineID {
			ws.NextMachineID = existing.ID + 1
		}
	}
	m.ID = ws.NextMachineID
	ws.NextMachineID++
	ws.Machines = append(ws.Machines, m)
	return m
}
