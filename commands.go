package simstore

import "github.com/rotisserie/eris"

// NewSpawnCommand spawns an entity with the given components. If target is non-nil it
// receives the allocated ID.
func NewSpawnCommand(target *EntityID, components ...Keyed) Command {
	return spawnCommand{target: target, components: components}
}

// NewDespawnCommand despawns an entity. Stale IDs are ignored.
func NewDespawnCommand(id EntityID) Command {
	return despawnCommand{entity: id}
}

// NewAttachCommand attaches a component, replacing any value of the same type.
func NewAttachCommand(id EntityID, component Keyed) Command {
	return attachCommand{entity: id, component: component}
}

// NewDetachCommand removes the component with the given key.
func NewDetachCommand(id EntityID, key TypeKey) Command {
	return detachCommand{entity: id, key: key}
}

// NewSetSingletonCommand overwrites a singleton.
func NewSetSingletonCommand(value Keyed) Command {
	return setSingletonCommand{value: value}
}

// NewClearCommand clears the registry.
func NewClearCommand() Command {
	return clearCommand{}
}

type spawnCommand struct {
	target     *EntityID
	components []Keyed
}

type despawnCommand struct {
	entity EntityID
}

type attachCommand struct {
	entity    EntityID
	component Keyed
}

type detachCommand struct {
	entity EntityID
	key    TypeKey
}

type setSingletonCommand struct {
	value Keyed
}

type clearCommand struct{}

func (c spawnCommand) Apply(r *Registry) error {
	e, err := r.spawnWith(c.components)
	if c.target != nil {
		*c.target = e.ID()
	}
	return err
}

func (c despawnCommand) Apply(r *Registry) error {
	r.Despawn(c.entity)
	return nil
}

func (c attachCommand) Apply(r *Registry) error {
	if c.component == nil {
		return eris.Errorf("simstore: attach nil component to %v", c.entity)
	}
	if !r.Contains(c.entity) {
		return nil
	}
	return r.mustStore(c.component.TypeKey(), fmtType(c.component)).InsertAny(c.entity, c.component)
}

func (c detachCommand) Apply(r *Registry) error {
	_, err := r.detachErased(c.entity, c.key)
	return err
}

func (c setSingletonCommand) Apply(r *Registry) error {
	if c.value == nil {
		return eris.New("simstore: set nil singleton")
	}
	return r.mustSingleton(c.value.TypeKey(), fmtType(c.value)).SetAny(c.value)
}

func (clearCommand) Apply(r *Registry) error {
	r.Clear()
	return nil
}

var (
	_ Command = spawnCommand{}
	_ Command = despawnCommand{}
	_ Command = attachCommand{}
	_ Command = detachCommand{}
	_ Command = setSingletonCommand{}
	_ Command = clearCommand{}
	_ Command = CommandFunc(nil)
)
