package fountain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPos struct{ x int }
type testVel struct{ dx int }
type testTag struct{}

func queryCmd(ecs *Ecs) *Commands {
	return &Commands{app: &App{ecs: ecs}}
}

func TestEcs_addEntity(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(testPos{x: 1})
	b := ecs.addEntity(&testPos{x: 2}, testVel{dx: 3})

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, ecs.entityCount())
	assert.True(t, ecs.hasEntity(a))
	assert.NotEqual(t, ecs.entityIndex[a], ecs.entityIndex[b], "different component sets use different archetypes")
}

func TestEcs_addEntityRejectsNonStruct(t *testing.T) {
	ecs := MakeEcs()
	assert.PanicsWithValue(t, "component must be a struct or a pointer to a struct, got int", func() {
		ecs.addEntity(42)
	})
}

func TestEcs_addComponentsMovesArchetype(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPos{x: 7})
	before := ecs.entityIndex[eid]

	ecs.addComponents(eid, testVel{dx: 1})
	assert.NotEqual(t, before, ecs.entityIndex[eid])

	var seen int
	MakeQuery2[testPos, testVel](queryCmd(ecs)).Map(func(id EntityId, p *testPos, v *testVel) bool {
		assert.Equal(t, eid, id)
		assert.Equal(t, 7, p.x, "existing components move with the entity")
		assert.Equal(t, 1, v.dx)
		seen++
		return true
	})
	assert.Equal(t, 1, seen)

	ecs.addComponents(eid, testVel{dx: 5})
	_, v, ok := MakeQuery1[testVel](queryCmd(ecs)).First()
	require.True(t, ok)
	assert.Equal(t, 5, v.dx, "same component set overwrites in place")

	assert.Panics(t, func() { ecs.addComponents(EntityId(99), testTag{}) })
}

func TestEcs_removeEntityRecyclesRow(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(testPos{x: 1})
	ecs.addEntity(testPos{x: 2})

	ecs.removeEntity(a)
	assert.False(t, ecs.hasEntity(a))
	ecs.removeEntity(a)

	c := ecs.addEntity(testPos{x: 3})
	arch := ecs.archetypes[ecs.entityIndex[c]]
	assert.Len(t, arch.owners, 2, "freed row is reused")
	assert.Equal(t, row(0), arch.entities[c])
}

func TestQuery_Map(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(testPos{x: 1})
	id2 := ecs.addEntity(testPos{x: 2}, testVel{dx: 20})
	id3 := ecs.addEntity(testPos{x: 3}, testVel{dx: 30}, testTag{})
	ecs.addEntity(testPos{x: 4}, testTag{})
	ecs.addEntity(testVel{dx: 50})

	var (
		ids []EntityId
		xs  []int
		dxs []int
	)
	MakeQuery2[testPos, testVel](queryCmd(ecs)).Map(func(eid EntityId, p *testPos, v *testVel) bool {
		ids = append(ids, eid)
		xs = append(xs, p.x)
		dxs = append(dxs, v.dx)
		return true
	})

	assert.Equal(t, []EntityId{id2, id3}, ids)
	assert.Equal(t, []int{2, 3}, xs)
	assert.Equal(t, []int{20, 30}, dxs)
}

func TestQuery_MapWritesThrough(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(testPos{x: 1})
	ecs.addEntity(testPos{x: 2})

	q := MakeQuery1[testPos](queryCmd(ecs))
	q.Map(func(eid EntityId, p *testPos) bool {
		p.x *= 10
		return true
	})

	var xs []int
	q.Map(func(eid EntityId, p *testPos) bool {
		xs = append(xs, p.x)
		return true
	})
	assert.Equal(t, []int{10, 20}, xs)
}

func TestQuery_MapStopsEarly(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(testPos{x: 1})
	ecs.addEntity(testPos{x: 2}, testTag{})

	calls := 0
	MakeQuery1[testPos](queryCmd(ecs)).Map(func(eid EntityId, p *testPos) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestQuery_FirstOnEmpty(t *testing.T) {
	_, p, ok := MakeQuery1[testPos](queryCmd(MakeEcs())).First()
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestCommands_EntitiesAppearAfterStage(t *testing.T) {
	app := NewApp()
	var (
		added   EntityId
		visible []bool
	)
	app.UseSystem(System(func(cmd *Commands) {
		if cmd.Frame() == 0 {
			added = cmd.AddEntity(testPos{x: 1})
		}
		_, _, ok := MakeQuery1[testPos](cmd).First()
		visible = append(visible, ok)
	}).InStage(Update))
	app.UseSystem(System(func(cmd *Commands) {
		_, _, ok := MakeQuery1[testPos](cmd).First()
		visible = append(visible, ok)
	}).InStage(PostUpdate))

	app.Step()
	assert.Equal(t, []bool{false, true}, visible, "insert lands between stages")

	cmd := app.Commands()
	cmd.AddComponents(added, testVel{dx: 2})
	cmd.RemoveEntity(added)
	app.flushCommands()
	assert.False(t, app.ecs.hasEntity(added), "components for a removed entity are dropped")
}
