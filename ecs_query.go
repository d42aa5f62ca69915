package fountain

import (
	"reflect"
)

// Query1 and Query2 iterate the entities that hold every listed component.
// Component pointers are valid until the next command flush.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A] { return Query1[A]{ecs: cmd.app.ecs} }

func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }

// Map calls m for each matching entity until m returns false.
func (q Query1[A]) Map(m func(EntityId, *A) bool) {
	idA := componentIdFor[A](q.ecs)
	for _, arch := range q.ecs.matching(idA) {
		as := arch.columns[idA].([]A)
		if !arch.eachRow(func(eid EntityId, r row) bool {
			return m(eid, &as[r])
		}) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool) {
	idA, idB := componentIdFor[A](q.ecs), componentIdFor[B](q.ecs)
	for _, arch := range q.ecs.matching(idA, idB) {
		as := arch.columns[idA].([]A)
		bs := arch.columns[idB].([]B)
		if !arch.eachRow(func(eid EntityId, r row) bool {
			return m(eid, &as[r], &bs[r])
		}) {
			return
		}
	}
}

// First returns the first matching entity.
func (q Query1[A]) First() (EntityId, *A, bool) {
	var (
		found EntityId
		a     *A
	)
	q.Map(func(eid EntityId, c *A) bool {
		found, a = eid, c
		return false
	})
	return found, a, a != nil
}

func componentIdFor[T any](ecs *Ecs) componentId {
	return ecs.componentIdOf(reflect.TypeFor[T]())
}

// matching lists archetypes holding all ids, in creation order.
func (ecs *Ecs) matching(ids ...componentId) []*archetype {
	var res []*archetype
	for _, archId := range ecs.created {
		arch := ecs.archetypes[archId]
		holdsAll := true
		for _, id := range ids {
			if _, ok := arch.columns[id]; !ok {
				holdsAll = false
				break
			}
		}
		if holdsAll {
			res = append(res, arch)
		}
	}
	return res
}
