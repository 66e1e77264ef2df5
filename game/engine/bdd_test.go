package engine

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeWorldScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

type worldContext struct {
	ws     *WorldState
	last   Result
	before worldSnapshot
}

func (wc *worldContext) reset() {
	wc.ws = nil
	wc.last = Result{}
	wc.before = worldSnapshot{}
}

// Setup steps

func (wc *worldContext) aWorldLaidOutAs(doc *godog.DocString) error {
	grid, err := GridFromLayout(strings.Fields(doc.Content))
	if err != nil {
		return err
	}
	wc.ws = &WorldState{Grid: grid, Machines: []*Machine{}, NextMachineID: 1}
	wc.ws.bind(DefaultRules(), &fixedRandom{roll: 1})
	return nil
}

func (wc *worldContext) theClassicWorldWithoutTrees() error {
	config := DefaultWorldConfig()
	config.InitialTrees = 0
	wc.ws = InitWorldFromConfig(config, &fixedRandom{roll: 1})
	return nil
}

func (wc *worldContext) woodInStock(n int) error {
	wc.ws.Wood = n
	return nil
}

func (wc *worldContext) aBlockAt(kind string, x, y int) error {
	if !wc.ws.Grid.InBounds(x, y) {
		return fmt.Errorf("(%d,%d) is outside the world", x, y)
	}
	wc.ws.Grid.Set(x, y, BlockKind(kind))
	return nil
}

func (wc *worldContext) aVehicleAt(x, y int) error {
	addVehicle(wc.ws, x, y, Air)
	return nil
}

func (wc *worldContext) aVehicleCarrying(x, y int, kind string) error {
	addVehicle(wc.ws, x, y, BlockKind(kind))
	return nil
}

func (wc *worldContext) aCraneAt(x, baseY, hookY int) error {
	addCrane(wc.ws, x, baseY, hookY, Air, Air)
	return nil
}

func (wc *worldContext) aCraneCarrying(x, baseY, hookY int, kind string) error {
	addCrane(wc.ws, x, baseY, hookY, Air, BlockKind(kind))
	return nil
}

// Action steps

func (wc *worldContext) machine(id int, kind MachineKind) (*Machine, error) {
	m := wc.ws.Machine(MachineID(id))
	if m == nil {
		return nil, fmt.Errorf("no machine %d", id)
	}
	if m.Kind != kind {
		return nil, fmt.Errorf("machine %d is a %s, not a %s", id, m.Kind, kind)
	}
	return m, nil
}

func (wc *worldContext) run(op func() Result) {
	wc.before = snapshot(wc.ws)
	wc.last = op()
}

func (wc *worldContext) vehicleMoves(id int, dir string) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.MoveVehicle(v, Direction(dir)) })
	return nil
}

func (wc *worldContext) vehicleLoads(id int, dir string) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.LoadVehicle(v, Direction(dir)) })
	return nil
}

func (wc *worldContext) vehicleUnloads(id int, dir string) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.UnloadVehicle(v, Direction(dir)) })
	return nil
}

func (wc *worldContext) vehicleSmartLoads(id int) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.SmartLoad(v) })
	return nil
}

// craneMovesHook stops at the first failed step so the last result explains it
func (wc *worldContext) craneMovesHook(id int, dir string, times int) error {
	c, err := wc.machine(id, KindCrane)
	if err != nil {
		return err
	}
	for i := 0; i < times; i++ {
		wc.run(func() Result { return wc.ws.MoveHook(c, Direction(dir)) })
		if !wc.last.Success {
			break
		}
	}
	return nil
}

func (wc *worldContext) craneAttaches(id int) error {
	c, err := wc.machine(id, KindCrane)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.AttachHook(c) })
	return nil
}

func (wc *worldContext) craneDetaches(id int) error {
	c, err := wc.machine(id, KindCrane)
	if err != nil {
		return err
	}
	wc.run(func() Result { return wc.ws.DetachHook(c) })
	return nil
}

func (wc *worldContext) aMachineIsBuilt(kind string, x, y int) error {
	switch MachineKind(kind) {
	case KindVehicle:
		wc.run(func() Result { return wc.ws.CreateVehicle(x, y) })
	case KindCrane:
		wc.run(func() Result { return wc.ws.CreateCrane(x, y) })
	default:
		return fmt.Errorf("unknown machine kind %q", kind)
	}
	return nil
}

func (wc *worldContext) machineIsDemolished(id int) error {
	m := wc.ws.Machine(MachineID(id))
	if m == nil {
		return fmt.Errorf("no machine %d", id)
	}
	if m.IsCrane() {
		wc.run(func() Result { return wc.ws.DemolishCrane(m) })
	} else {
		wc.run(func() Result { return wc.ws.DemolishVehicle(m) })
	}
	return nil
}

// Assertion steps

func (wc *worldContext) theOperationSucceeds() error {
	if !wc.last.Success {
		return fmt.Errorf("expected success, got %s/%s: %s", wc.last.Category, wc.last.Reason, wc.last.Message)
	}
	return nil
}

func (wc *worldContext) theOperationFailsWith(category, reason string) error {
	if wc.last.Success {
		return fmt.Errorf("expected %s/%s, got success: %s", category, reason, wc.last.Message)
	}
	if string(wc.last.Category) != category || string(wc.last.Reason) != reason {
		return fmt.Errorf("expected %s/%s, got %s/%s", category, reason, wc.last.Category, wc.last.Reason)
	}
	return nil
}

func (wc *worldContext) theWorldIsUnchanged() error {
	after := snapshot(wc.ws)
	if !reflect.DeepEqual(wc.before, after) {
		return fmt.Errorf("world changed after a failed operation")
	}
	return nil
}

func (wc *worldContext) theStockIs(n int) error {
	if wc.ws.Wood != n {
		return fmt.Errorf("expected %d wood, got %d", n, wc.ws.Wood)
	}
	return nil
}

func (wc *worldContext) theCellHolds(x, y int, kind string) error {
	if got := wc.ws.Grid.At(x, y); got != BlockKind(kind) {
		return fmt.Errorf("expected %s at (%d,%d), got %s", kind, x, y, got)
	}
	return nil
}

func (wc *worldContext) vehicleIsAt(id, x, y int) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	if v.X != x || v.Y != y {
		return fmt.Errorf("expected vehicle %d at (%d,%d), got (%d,%d)", id, x, y, v.X, v.Y)
	}
	return nil
}

func (wc *worldContext) vehicleCarries(id int, kind string) error {
	v, err := wc.machine(id, KindVehicle)
	if err != nil {
		return err
	}
	if got := v.Cargo.Content(); got != BlockKind(kind) {
		return fmt.Errorf("expected vehicle %d to carry %s, got %s", id, kind, got)
	}
	return nil
}

func (wc *worldContext) craneSlotCarries(id int, slot, kind string) error {
	c, err := wc.machine(id, KindCrane)
	if err != nil {
		return err
	}
	got := c.Hook.Content()
	if slot == "base" {
		got = c.Base.Content()
	}
	if got != BlockKind(kind) {
		return fmt.Errorf("expected crane %d %s to carry %s, got %s", id, slot, kind, got)
	}
	return nil
}

func (wc *worldContext) craneHookIsAtRow(id, row int) error {
	c, err := wc.machine(id, KindCrane)
	if err != nil {
		return err
	}
	if c.HookY != row {
		return fmt.Errorf("expected crane %d hook at row %d, got %d", id, row, c.HookY)
	}
	return nil
}

func (wc *worldContext) thePathIs(fromY, toY, x int, want string) error {
	blocked := wc.ws.IsPathBlocked(fromY, toY, x)
	if blocked != (want == "blocked") {
		return fmt.Errorf("expected path from row %d to %d in column %d to be %s", fromY, toY, x, want)
	}
	return nil
}

// InitializeWorldScenario registers the world rule steps
func InitializeWorldScenario(sc *godog.ScenarioContext) {
	wc := &worldContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		wc.reset()
		return ctx, nil
	})

	sc.Step(`^a world laid out as:$`, wc.aWorldLaidOutAs)
	sc.Step(`^the classic world without trees$`, wc.theClassicWorldWithoutTrees)
	sc.Step(`^(\d+) wood in stock$`, wc.woodInStock)
	sc.Step(`^an? (air|dirt|stone|tree|wood)(?: block)? at \((\d+),(\d+)\)$`, wc.aBlockAt)
	sc.Step(`^a vehicle at \((\d+),(\d+)\)$`, wc.aVehicleAt)
	sc.Step(`^a vehicle at \((\d+),(\d+)\) carrying (\w+)$`, wc.aVehicleCarrying)
	sc.Step(`^a crane at column (\d+) with base row (\d+) and hook row (\d+)$`, wc.aCraneAt)
	sc.Step(`^a crane at column (\d+) with base row (\d+) and hook row (\d+) carrying (\w+)$`, wc.aCraneCarrying)

	sc.Step(`^vehicle (\d+) moves (\w+)$`, wc.vehicleMoves)
	sc.Step(`^vehicle (\d+) loads (\w+)$`, wc.vehicleLoads)
	sc.Step(`^vehicle (\d+) unloads (\w+)$`, wc.vehicleUnloads)
	sc.Step(`^vehicle (\d+) smart loads$`, wc.vehicleSmartLoads)
	sc.Step(`^crane (\d+) moves its hook (\w+) (\d+) times$`, wc.craneMovesHook)
	sc.Step(`^crane (\d+) attaches$`, wc.craneAttaches)
	sc.Step(`^crane (\d+) detaches$`, wc.craneDetaches)
	sc.Step(`^a (vehicle|crane) is built at \((\d+),(\d+)\)$`, wc.aMachineIsBuilt)
	sc.Step(`^machine (\d+) is demolished$`, wc.machineIsDemolished)

	sc.Step(`^the operation succeeds$`, wc.theOperationSucceeds)
	sc.Step(`^the operation fails with (\w+)/(\w+)$`, wc.theOperationFailsWith)
	sc.Step(`^the world is unchanged$`, wc.theWorldIsUnchanged)
	sc.Step(`^the stock is (\d+) wood$`, wc.theStockIs)
	sc.Step(`^the cell \((\d+),(\d+)\) holds (\w+)$`, wc.theCellHolds)
	sc.Step(`^vehicle (\d+) is at \((\d+),(\d+)\)$`, wc.vehicleIsAt)
	sc.Step(`^vehicle (\d+) carries (\w+)$`, wc.vehicleCarries)
	sc.Step(`^crane (\d+) (hook|base) carries (\w+)$`, wc.craneSlotCarries)
	sc.Step(`^crane (\d+) hook is at row (\d+)$`, wc.craneHookIsAtRow)
	sc.Step(`^the path from row (\d+) to row (\d+) in column (\d+) is (blocked|clear)$`, wc.thePathIs)
}
