package simstore

// Entity is a handle bound to one entity ID and the registry that issued it. It is a
// value type; copies refer to the same entity.
type Entity struct {
	id       EntityID
	registry *Registry
}

// ID returns the entity's identifier.
func (e Entity) ID() EntityID {
	return e.id
}

// Registry returns the registry the entity belongs to.
func (e Entity) Registry() *Registry {
	return e.registry
}

// Alive reports whether the entity is still live.
func (e Entity) Alive() bool {
	return e.registry != nil && e.registry.Contains(e.id)
}

// Attach stores each component on the entity, replacing values of the same type. It
// reports false when the entity is gone or any replaced value was borrowed; the
// remaining components are still attached.
func (e Entity) Attach(components ...Keyed) bool {
	if !e.Alive() {
		return false
	}
	ok := true
	for _, c := range components {
		if c == nil {
			continue
		}
		err := e.registry.mustStore(c.TypeKey(), fmtType(c)).InsertAny(e.id, c)
		switch {
		case err == nil:
		case isBorrowed(err):
			ok = false
		default:
			panic(err)
		}
	}
	return ok
}

// Detach removes the component with key. It reports false when the entity is gone, the
// component is absent, or it is currently borrowed.
func (e Entity) Detach(key TypeKey) bool {
	if !e.Alive() {
		return false
	}
	removed, err := e.registry.detachErased(e.id, key)
	if err != nil {
		e.registry.logger.Debug().Err(err).Stringer("entity", e.id).Msg("detach refused")
	}
	return removed
}

// Has reports whether the entity carries the component with key.
func (e Entity) Has(key TypeKey) bool {
	if !e.Alive() {
		return false
	}
	return e.registry.storeByKey(key).Has(e.id)
}

// Despawn removes the entity from the registry.
func (e Entity) Despawn() bool {
	if e.registry == nil {
		return false
	}
	return e.registry.Despawn(e.id)
}

func (e Entity) String() string {
	return e.id.String()
}

// Get borrows the entity's T for reading.
func Get[T Keyed](e Entity) (*Ref[T], bool) {
	if e.registry == nil {
		return nil, false
	}
	return Component[T](e.registry, e.id)
}

// GetMut borrows the entity's T for writing.
func GetMut[T Keyed](e Entity) (*RefMut[T], bool) {
	if e.registry == nil {
		return nil, false
	}
	return ComponentMut[T](e.registry, e.id)
}
