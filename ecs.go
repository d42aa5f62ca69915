package fountain

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
)

type EntityId uint64
type componentId uint32
type archetypeId uint64
type archetypeKey []componentId
type row int

// Ecs stores components by archetype: entities with the same component set
// share one archetype, which keeps a typed column per component and one row
// per entity.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	created     []archetypeId
	entityIndex map[EntityId]archetypeId

	nextEntity     EntityId
	componentIds   map[reflect.Type]componentId
	componentTypes []reflect.Type
}

type archetype struct {
	id       archetypeId
	key      archetypeKey
	entities map[EntityId]row
	owners   []EntityId
	used     []bool
	columns  map[componentId]any // []T per component type
	free     []row
}

func MakeEcs() *Ecs {
	return &Ecs{
		archetypes:   make(map[archetypeId]*archetype),
		entityIndex:  make(map[EntityId]archetypeId),
		componentIds: make(map[reflect.Type]componentId),
	}
}

func (ecs *Ecs) reserveEntityId() EntityId {
	id := ecs.nextEntity
	ecs.nextEntity++
	return id
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.reserveEntityId(), components...)
}

func (ecs *Ecs) insertEntity(eid EntityId, components ...any) EntityId {
	values := componentValues(components)
	arch := ecs.archetypeFor(ecs.keyOf(values))

	r := ecs.reserveRow(arch, eid)
	for _, v := range values {
		ecs.writeColumn(arch, r, v)
	}
	ecs.entityIndex[eid] = arch.id
	return eid
}

// addComponents moves the entity into the archetype that also holds the new
// components. Components it already has are overwritten.
func (ecs *Ecs) addComponents(eid EntityId, components ...any) {
	srcId, ok := ecs.entityIndex[eid]
	if !ok {
		panic(fmt.Sprintf("entity %d does not exist", eid))
	}
	src := ecs.archetypes[srcId]
	srcRow := src.entities[eid]

	values := componentValues(components)
	dst := ecs.archetypeFor(normalizeKey(append(slices.Clone(src.key), ecs.keyOf(values)...)))
	if dst == src {
		for _, v := range values {
			ecs.writeColumn(dst, srcRow, v)
		}
		return
	}

	dstRow := ecs.reserveRow(dst, eid)
	for _, cid := range src.key {
		reflect.ValueOf(dst.columns[cid]).Index(int(dstRow)).Set(
			reflect.ValueOf(src.columns[cid]).Index(int(srcRow)),
		)
	}
	for _, v := range values {
		ecs.writeColumn(dst, dstRow, v)
	}

	ecs.releaseRow(src, eid)
	ecs.entityIndex[eid] = dst.id
}

func (ecs *Ecs) removeEntity(eid EntityId) {
	archId, ok := ecs.entityIndex[eid]
	if !ok {
		return
	}
	ecs.releaseRow(ecs.archetypes[archId], eid)
	delete(ecs.entityIndex, eid)
}

func (ecs *Ecs) hasEntity(eid EntityId) bool {
	_, ok := ecs.entityIndex[eid]
	return ok
}

func (ecs *Ecs) entityCount() int {
	return len(ecs.entityIndex)
}

// componentValues unwraps pointers; anything but a struct panics.
func componentValues(components []any) []reflect.Value {
	values := make([]reflect.Value, 0, len(components))
	for _, c := range components {
		v := reflect.ValueOf(c)
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			panic(fmt.Sprintf("component must be a struct or a pointer to a struct, got %T", c))
		}
		values = append(values, v)
	}
	return values
}

func (ecs *Ecs) componentIdOf(t reflect.Type) componentId {
	if id, ok := ecs.componentIds[t]; ok {
		return id
	}
	id := componentId(len(ecs.componentTypes))
	ecs.componentIds[t] = id
	ecs.componentTypes = append(ecs.componentTypes, t)
	return id
}

func (ecs *Ecs) keyOf(values []reflect.Value) archetypeKey {
	key := make(archetypeKey, 0, len(values))
	for _, v := range values {
		key = append(key, ecs.componentIdOf(v.Type()))
	}
	return normalizeKey(key)
}

// normalizeKey sorts and dedups; equal component sets yield equal keys.
func normalizeKey(key archetypeKey) archetypeKey {
	slices.Sort(key)
	return slices.Compact(key)
}

func (key archetypeKey) id() archetypeId {
	h := fnv.New64a()
	var b [4]byte
	for _, cid := range key {
		binary.LittleEndian.PutUint32(b[:], uint32(cid))
		h.Write(b[:])
	}
	return archetypeId(h.Sum64())
}

func (ecs *Ecs) archetypeFor(key archetypeKey) *archetype {
	id := key.id()
	if arch, ok := ecs.archetypes[id]; ok {
		return arch
	}

	arch := &archetype{
		id:       id,
		key:      key,
		entities: make(map[EntityId]row),
		columns:  make(map[componentId]any, len(key)),
	}
	for _, cid := range key {
		arch.columns[cid] = reflect.MakeSlice(reflect.SliceOf(ecs.componentTypes[cid]), 0, 1).Interface()
	}
	ecs.archetypes[id] = arch
	ecs.created = append(ecs.created, id)
	return arch
}

func (ecs *Ecs) reserveRow(arch *archetype, eid EntityId) row {
	var r row
	if n := len(arch.free); n > 0 {
		r = arch.free[n-1]
		arch.free = arch.free[:n-1]
		arch.owners[r] = eid
		arch.used[r] = true
	} else {
		r = row(len(arch.owners))
		arch.owners = append(arch.owners, eid)
		arch.used = append(arch.used, true)
		for _, cid := range arch.key {
			col := reflect.ValueOf(arch.columns[cid])
			arch.columns[cid] = reflect.Append(col, reflect.Zero(col.Type().Elem())).Interface()
		}
	}
	arch.entities[eid] = r
	return r
}

// releaseRow zeroes the row so it holds no references, then recycles it.
func (ecs *Ecs) releaseRow(arch *archetype, eid EntityId) {
	r, ok := arch.entities[eid]
	if !ok {
		return
	}
	for _, cid := range arch.key {
		cell := reflect.ValueOf(arch.columns[cid]).Index(int(r))
		cell.Set(reflect.Zero(cell.Type()))
	}
	arch.used[r] = false
	arch.free = append(arch.free, r)
	delete(arch.entities, eid)
}

func (ecs *Ecs) writeColumn(arch *archetype, r row, v reflect.Value) {
	cid := ecs.componentIdOf(v.Type())
	reflect.ValueOf(arch.columns[cid]).Index(int(r)).Set(v)
}

// eachRow visits occupied rows in row order until fn returns false.
func (arch *archetype) eachRow(fn func(EntityId, row) bool) bool {
	for i, used := range arch.used {
		if used && !fn(arch.owners[i], row(i)) {
			return false
		}
	}
	return true
}
