package engine

import "testing"

func TestMoveVehicle(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		setup  func(ws *WorldState)
		dir    Direction
		wantX  int
		wantY  int
	}{
		{
			name:   "level move on dirt",
			layout: flatLayout,
			dir:    Right,
			wantX:  3, wantY: 3,
		},
		{
			name:   "level move left",
			layout: flatLayout,
			dir:    Left,
			wantX:  1, wantY: 3,
		},
		{
			name: "climb onto a block",
			layout: []string{
				"........",
				"........",
				"........",
				"...D....",
				"DDDDDDDD",
				"SSSSSSSS",
			},
			dir:   Right,
			wantX: 3, wantY: 2,
		},
		{
			name: "drop into a hole",
			layout: []string{
				"........",
				"........",
				"........",
				"........",
				"DDD.DDDD",
				"SSSSSSSS",
			},
			dir:   Right,
			wantX: 3, wantY: 4,
		},
		{
			name: "level move onto a loaded crane base",
			layout: []string{
				"........",
				"........",
				"........",
				"........",
				"DDD.DDDD",
				"SSSSSSSS",
			},
			setup: func(ws *WorldState) { addCrane(ws, 3, 4, 4, Dirt, Air) },
			dir:   Right,
			wantX: 3, wantY: 3,
		},
		{
			name: "drop onto an empty crane base",
			layout: []string{
				"........",
				"........",
				"........",
				"........",
				"DDD.DDDD",
				"SSSSSSSS",
			},
			setup: func(ws *WorldState) { addCrane(ws, 3, 4, 4, Air, Air) },
			dir:   Right,
			wantX: 3, wantY: 4,
		},
		{
			name:   "level move through an empty hook",
			layout: flatLayout,
			setup:  func(ws *WorldState) { addCrane(ws, 3, 0, 3, Air, Air) },
			dir:    Right,
			wantX:  3, wantY: 3,
		},
		{
			name: "climb under an empty hook",
			layout: []string{
				"........",
				"........",
				"........",
				"...D....",
				"DDDDDDDD",
				"SSSSSSSS",
			},
			setup: func(ws *WorldState) { addCrane(ws, 3, 0, 2, Air, Air) },
			dir:   Right,
			wantX: 3, wantY: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorld(t, tt.layout...)
			if tt.setup != nil {
				tt.setup(ws)
			}
			v := addVehicle(ws, 2, 3, Air)

			res := ws.MoveVehicle(v, tt.dir)
			expectSuccess(t, res)
			if v.X != tt.wantX || v.Y != tt.wantY {
				t.Errorf("Expected vehicle at (%d,%d), got (%d,%d)", tt.wantX, tt.wantY, v.X, v.Y)
			}
			if v.LastMove != tt.dir {
				t.Errorf("Expected last move %s, got %s", tt.dir, v.LastMove)
			}
			if ws.OperationCount != 1 {
				t.Errorf("Expected operation count 1, got %d", ws.OperationCount)
			}
			assertInvariants(t, ws)
		})
	}
}

func TestMoveVehicle_Failures(t *testing.T) {
	tests := []struct {
		name     string
		layout   []string
		setup    func(ws *WorldState)
		startX   int
		dir      Direction
		category FailureCategory
		reason   Reason
	}{
		{
			name:     "world edge",
			layout:   flatLayout,
			startX:   0,
			dir:      Left,
			category: CategoryBoundary,
			reason:   ReasonOutOfBounds,
		},
		{
			name: "wall two blocks high",
			layout: []string{
				"........",
				"........",
				"...D....",
				"...D....",
				"DDDDDDDD",
				"SSSSSSSS",
			},
			startX:   2,
			dir:      Right,
			category: CategoryOccupancy,
			reason:   ReasonTerrainUnsuitable,
		},
		{
			name: "cliff deeper than one block",
			layout: []string{
				"........",
				"........",
				"........",
				"........",
				"DDD.DDDD",
				"SSS.SSSS",
			},
			startX:   2,
			dir:      Right,
			category: CategoryOccupancy,
			reason:   ReasonTerrainUnsuitable,
		},
		{
			name:     "another vehicle in the way",
			layout:   flatLayout,
			setup:    func(ws *WorldState) { addVehicle(ws, 3, 3, Air) },
			startX:   2,
			dir:      Right,
			category: CategoryOccupancy,
			reason:   ReasonTerrainUnsuitable,
		},
		{
			name:     "loaded hook in the way",
			layout:   flatLayout,
			setup:    func(ws *WorldState) { addCrane(ws, 3, 0, 3, Air, Stone) },
			startX:   2,
			dir:      Right,
			category: CategoryOccupancy,
			reason:   ReasonTerrainUnsuitable,
		},
		{
			name: "empty base above the step blocks climbing",
			layout: []string{
				"........",
				"........",
				"........",
				"...D....",
				"DDDDDDDD",
				"SSSSSSSS",
			},
			setup:    func(ws *WorldState) { addCrane(ws, 3, 2, 2, Air, Air) },
			startX:   2,
			dir:      Right,
			category: CategoryOccupancy,
			reason:   ReasonTerrainUnsuitable,
		},
		{
			name:     "vertical direction",
			layout:   flatLayout,
			startX:   2,
			dir:      Up,
			category: CategoryCapability,
			reason:   ReasonInvalidDirection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorld(t, tt.layout...)
			if tt.setup != nil {
				tt.setup(ws)
			}
			v := addVehicle(ws, tt.startX, 3, Air)
			before := snapshot(ws)

			if ws.CanMoveVehicle(v, tt.dir) {
				t.Error("CanMoveVehicle should agree with the failure")
			}
			expectFailure(t, ws.MoveVehicle(v, tt.dir), tt.category, tt.reason)
			assertUnchanged(t, before, ws)
		})
	}
}

func TestMoveVehicle_ClimbAtTopRow(t *testing.T) {
	ws := newTestWorld(t,
		"...D....",
		"DDDDDDDD",
		"SSSSSSSS",
		"SSSSSSSS",
		"SSSSSSSS",
	)
	v := addVehicle(ws, 2, 0, Air)
	before := snapshot(ws)

	expectFailure(t, ws.MoveVehicle(v, Right), CategoryOccupancy, ReasonTerrainUnsuitable)
	assertUnchanged(t, before, ws)
}

func TestMoveVehicle_LevelBeforeClimb(t *testing.T) {
	ws := newTestWorld(t,
		"........",
		"........",
		"........",
		"........",
		"DDDDDDDD",
		"SSSSSSSS",
	)
	v := addVehicle(ws, 5, 3, Air)

	expectSuccess(t, ws.MoveVehicle(v, Right))
	if v.X != 6 || v.Y != 3 {
		t.Errorf("Expected level move to (6,3), got (%d,%d)", v.X, v.Y)
	}
}

func TestLoadVehicle(t *testing.T) {
	layout := []string{
		"........",
		"........",
		"........",
		".D.T....",
		"DDDDDDDD",
		"SSSSSSSS",
	}

	t.Run("harvest tree", func(t *testing.T) {
		ws := newTestWorld(t, layout...)
		ws.Wood = 3
		v := addVehicle(ws, 2, 3, Air)

		res := ws.LoadVehicle(v, Right)
		expectSuccess(t, res)
		if ws.Wood != 4 {
			t.Errorf("Expected wood 4, got %d", ws.Wood)
		}
		if res.WoodDelta != 1 {
			t.Errorf("Expected wood delta 1, got %d", res.WoodDelta)
		}
		if ws.Grid.At(3, 3) != Air {
			t.Errorf("Tree cell should be cleared, got %s", ws.Grid.At(3, 3))
		}
		if v.Cargo.Loaded {
			t.Error("Harvesting must not fill the cargo slot")
		}
		if ws.OperationCount != 1 {
			t.Errorf("Expected operation count 1, got %d", ws.OperationCount)
		}
	})

	t.Run("pick up dirt", func(t *testing.T) {
		ws := newTestWorld(t, layout...)
		v := addVehicle(ws, 2, 3, Air)

		expectSuccess(t, ws.LoadVehicle(v, Left))
		if v.Cargo.Content() != Dirt {
			t.Errorf("Expected dirt cargo, got %+v", v.Cargo)
		}
		if ws.Grid.At(1, 3) != Air {
			t.Errorf("Source cell should be cleared, got %s", ws.Grid.At(1, 3))
		}
		assertInvariants(t, ws)
	})

	t.Run("loaded base wins over terrain", func(t *testing.T) {
		ws := newTestWorld(t, layout...)
		crane := addCrane(ws, 1, 3, 3, Stone, Air)
		v := addVehicle(ws, 2, 3, Air)

		expectSuccess(t, ws.LoadVehicle(v, Left))
		if v.Cargo.Content() != Stone {
			t.Errorf("Expected stone from the base, got %+v", v.Cargo)
		}
		if crane.Base.Loaded {
			t.Error("Base should be emptied")
		}
		if ws.Grid.At(1, 3) != Dirt {
			t.Errorf("Terrain should be untouched, got %s", ws.Grid.At(1, 3))
		}
	})

	t.Run("tree on a base is harvested and removed", func(t *testing.T) {
		ws := newTestWorld(t)
		crane := addCrane(ws, 3, 3, 3, Tree, Air)
		v := addVehicle(ws, 2, 3, Air)

		expectSuccess(t, ws.LoadVehicle(v, Right))
		if ws.Wood != 1 {
			t.Errorf("Expected wood 1, got %d", ws.Wood)
		}
		if crane.Base.Loaded {
			t.Error("Harvested tree should leave the base")
		}
		if v.Cargo.Loaded {
			t.Error("Harvesting must not fill the cargo slot")
		}
	})

	failures := []struct {
		name     string
		cargo    BlockKind
		x        int
		dir      Direction
		category FailureCategory
		reason   Reason
	}{
		{"already full", Wood, 2, Right, CategoryCapability, ReasonSlotFull},
		{"nothing there", Air, 5, Right, CategoryOccupancy, ReasonNoSource},
		{"edge of the world", Air, 0, Left, CategoryOccupancy, ReasonNoSource},
		{"vertical", Air, 2, Down, CategoryCapability, ReasonInvalidDirection},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorld(t, layout...)
			v := addVehicle(ws, tt.x, 3, tt.cargo)
			before := snapshot(ws)
			expectFailure(t, ws.LoadVehicle(v, tt.dir), tt.category, tt.reason)
			assertUnchanged(t, before, ws)
		})
	}
}

func TestUnloadVehicle(t *testing.T) {
	t.Run("onto air", func(t *testing.T) {
		ws := newTestWorld(t)
		v := addVehicle(ws, 2, 3, Wood)

		expectSuccess(t, ws.UnloadVehicle(v, Right))
		if ws.Grid.At(3, 3) != Wood {
			t.Errorf("Expected wood at (3,3), got %s", ws.Grid.At(3, 3))
		}
		if v.Cargo.Loaded {
			t.Error("Vehicle should be empty after unloading")
		}
	})

	t.Run("empty base wins over air", func(t *testing.T) {
		ws := newTestWorld(t)
		crane := addCrane(ws, 1, 3, 3, Air, Air)
		v := addVehicle(ws, 2, 3, Stone)

		expectSuccess(t, ws.UnloadVehicle(v, Left))
		if crane.Base.Content() != Stone {
			t.Errorf("Expected stone on the base, got %+v", crane.Base)
		}
		if ws.Grid.At(1, 3) != Air {
			t.Errorf("Terrain should stay air, got %s", ws.Grid.At(1, 3))
		}
		assertInvariants(t, ws)
	})

	failures := []struct {
		name     string
		layout   []string
		cargo    BlockKind
		x        int
		dir      Direction
		category FailureCategory
		reason   Reason
	}{
		{"empty vehicle", flatLayout, Air, 2, Right, CategoryCapability, ReasonSlotEmpty},
		{"solid neighbour", []string{
			"........",
			"........",
			"........",
			"...S....",
			"DDDDDDDD",
			"SSSSSSSS",
		}, Dirt, 2, Right, CategoryOccupancy, ReasonNoDestination},
		{"edge of the world", flatLayout, Dirt, 7, Right, CategoryOccupancy, ReasonNoDestination},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorld(t, tt.layout...)
			v := addVehicle(ws, tt.x, 3, tt.cargo)
			before := snapshot(ws)
			expectFailure(t, ws.UnloadVehicle(v, tt.dir), tt.category, tt.reason)
			assertUnchanged(t, before, ws)
		})
	}
}

func TestSmartLoadAndUnload(t *testing.T) {
	t.Run("load falls back to the other side", func(t *testing.T) {
		ws := newTestWorld(t,
			"........",
			"........",
			"........",
			"...T....",
			"DDDDDDDD",
			"SSSSSSSS",
		)
		v := addVehicle(ws, 2, 3, Air)
		v.LastMove = Left

		expectSuccess(t, ws.SmartLoad(v))
		if ws.Wood != 1 {
			t.Errorf("Expected the tree on the right to be harvested, wood %d", ws.Wood)
		}
	})

	t.Run("load prefers the last move side", func(t *testing.T) {
		ws := newTestWorld(t,
			"........",
			"........",
			"........",
			".W.S....",
			"DDDDDDDD",
			"SSSSSSSS",
		)
		v := addVehicle(ws, 2, 3, Air)
		v.LastMove = Left

		expectSuccess(t, ws.SmartLoad(v))
		if v.Cargo.Content() != Wood {
			t.Errorf("Expected wood from the left, got %+v", v.Cargo)
		}
	})

	t.Run("load defaults to the right", func(t *testing.T) {
		ws := newTestWorld(t,
			"........",
			"........",
			"........",
			".W.S....",
			"DDDDDDDD",
			"SSSSSSSS",
		)
		v := addVehicle(ws, 2, 3, Air)

		expectSuccess(t, ws.SmartLoad(v))
		if v.Cargo.Content() != Stone {
			t.Errorf("Expected stone from the right, got %+v", v.Cargo)
		}
	})

	t.Run("full vehicle does not retry", func(t *testing.T) {
		ws := newTestWorld(t)
		v := addVehicle(ws, 2, 3, Dirt)
		expectFailure(t, ws.SmartLoad(v), CategoryCapability, ReasonSlotFull)
	})

	t.Run("unload reverse", func(t *testing.T) {
		ws := newTestWorld(t)
		v := addVehicle(ws, 2, 3, Dirt)
		v.LastMove = Right

		expectSuccess(t, ws.SmartUnload(v, true))
		if ws.Grid.At(1, 3) != Dirt {
			t.Errorf("Expected dirt dropped on the left, got %s", ws.Grid.At(1, 3))
		}
	})

	t.Run("unload falls back to the other side", func(t *testing.T) {
		ws := newTestWorld(t,
			"........",
			"........",
			"........",
			"...S....",
			"DDDDDDDD",
			"SSSSSSSS",
		)
		v := addVehicle(ws, 2, 3, Dirt)
		v.LastMove = Right

		expectSuccess(t, ws.SmartUnload(v, false))
		if ws.Grid.At(1, 3) != Dirt {
			t.Errorf("Expected dirt dropped on the left, got %s", ws.Grid.At(1, 3))
		}
	})

	t.Run("both sides blocked", func(t *testing.T) {
		ws := newTestWorld(t,
			"........",
			"........",
			"........",
			".S.S....",
			"DDDDDDDD",
			"SSSSSSSS",
		)
		v := addVehicle(ws, 2, 3, Dirt)
		before := snapshot(ws)
		expectFailure(t, ws.SmartUnload(v, false), CategoryOccupancy, ReasonNoDestination)
		assertUnchanged(t, before, ws)
	})
}
