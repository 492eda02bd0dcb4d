package simstore

import (
	"cmp"
	"errors"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/armon/go-metrics"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/DangerosoDavo/simstore/codec"
	"github.com/DangerosoDavo/simstore/storage"
)

// Registry owns the entity table, one column store per registered component type, one
// slot per registered singleton type, and a queue of deferred commands.
//
// A Registry is driven by a single goroutine. Borrows guard against overlapping logical
// access within that goroutine; structural changes (register, spawn, despawn, clear,
// deserialize, clone) expect no borrows to be outstanding.
type Registry struct {
	entities   *EntityTable
	components map[TypeKey]ErasedStore
	singletons map[TypeKey]ErasedSingleton
	schemas    map[TypeKey][]byte
	commands   *CommandQueue

	codec           codec.Codec
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	observers       []Observer
	observer        Observer
	validateSchemas bool
	closed          bool
}

// Option configures a registry.
type Option func(*Registry)

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entities:   NewEntityTable(),
		components: make(map[TypeKey]ErasedStore),
		singletons: make(map[TypeKey]ErasedSingleton),
		schemas:    make(map[TypeKey][]byte),
		commands:   NewCommandQueue(),
		codec:      codec.JSON,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.observer = r.buildObserver()
	return r
}

// WithCodec overrides the snapshot codec.
func WithCodec(c codec.Codec) Option {
	return func(r *Registry) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithLogger sets the logger used for registry events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics reports command execution to a go-metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithObserver adds an observer notified after every Execute.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		if observer != nil {
			r.observers = append(r.observers, observer)
		}
	}
}

// WithSchemaValidation records each type's JSON schema in snapshots and skips snapshot
// stores whose recorded schema differs from the registered type's.
func WithSchemaValidation(enabled bool) Option {
	return func(r *Registry) {
		r.validateSchemas = enabled
	}
}

func (r *Registry) buildObserver() Observer {
	observers := []Observer{NewLoggingObserver(r.logger)}
	if r.metrics != nil {
		observers = append(observers, NewMetricsObserver(r.metrics))
	}
	observers = append(observers, r.observers...)
	return compositeObserver{observers: observers}
}

// ColumnOption configures a component column at registration.
type ColumnOption func(*columnConfig)

type columnConfig struct {
	strategy storage.Strategy
}

// WithStrategy selects the slot layout for a component column.
func WithStrategy(s storage.Strategy) ColumnOption {
	return func(c *columnConfig) {
		c.strategy = s
	}
}

// RegisterComponent creates the column store for T. Registering a key twice panics.
func RegisterComponent[T Keyed](r *Registry, opts ...ColumnOption) {
	r.ensureOpen()
	cfg := columnConfig{strategy: storage.Dense}
	for _, opt := range opts {
		opt(&cfg)
	}
	key := KeyOf[T]()
	if existing, ok := r.components[key]; ok {
		panic(eris.Wrapf(ErrAlreadyRegistered, "component %s (%s) collides with %s", typeName[T](), key, existing.Name()))
	}
	if existing, ok := r.singletons[key]; ok {
		panic(eris.Wrapf(ErrAlreadyRegistered, "component %s (%s) collides with singleton %s", typeName[T](), key, existing.Name()))
	}
	col := newColumn[T](key, cfg.strategy)
	r.components[key] = col
	r.recordSchema(key, col.Name(), *new(T))
	r.logger.Debug().
		Str("component", col.Name()).
		Str("key", key.String()).
		Str("strategy", cfg.strategy.Name()).
		Msg("component registered")
}

// RegisterSingleton creates the slot for T, holding T's default value. Registering a key
// twice panics.
func RegisterSingleton[T Keyed](r *Registry) {
	r.ensureOpen()
	key := KeyOf[T]()
	if existing, ok := r.singletons[key]; ok {
		panic(eris.Wrapf(ErrAlreadyRegistered, "singleton %s (%s) collides with %s", typeName[T](), key, existing.Name()))
	}
	if existing, ok := r.components[key]; ok {
		panic(eris.Wrapf(ErrAlreadyRegistered, "singleton %s (%s) collides with component %s", typeName[T](), key, existing.Name()))
	}
	slot := newSingletonSlot[T](key)
	r.singletons[key] = slot
	r.recordSchema(key, slot.Name(), *new(T))
	r.logger.Debug().
		Str("singleton", slot.Name()).
		Str("key", key.String()).
		Msg("singleton registered")
}

func (r *Registry) recordSchema(key TypeKey, name string, zero any) {
	if !r.validateSchemas {
		return
	}
	schema, err := codec.Schema(zero)
	if err != nil {
		r.logger.Warn().Err(err).Str("type", name).Msg("schema unavailable, snapshots of this type are not validated")
		return
	}
	r.schemas[key] = schema
}

// IsRegistered reports whether key names a registered component or singleton type.
func (r *Registry) IsRegistered(key TypeKey) bool {
	_, component := r.components[key]
	_, singleton := r.singletons[key]
	return component || singleton
}

func (r *Registry) ensureOpen() {
	if r.closed {
		panic(ErrRegistryClosed)
	}
}

func (r *Registry) mustStore(key TypeKey, name string) ErasedStore {
	r.ensureOpen()
	store, ok := r.components[key]
	if !ok {
		panic(eris.Wrapf(ErrNotRegistered, "component %s (%s)", name, key))
	}
	return store
}

func (r *Registry) mustSingleton(key TypeKey, name string) ErasedSingleton {
	r.ensureOpen()
	slot, ok := r.singletons[key]
	if !ok {
		panic(eris.Wrapf(ErrNotRegistered, "singleton %s (%s)", name, key))
	}
	return slot
}

// storeByKey is mustStore for callers that hold only the key.
func (r *Registry) storeByKey(key TypeKey) ErasedStore {
	r.ensureOpen()
	store, ok := r.components[key]
	if !ok {
		panic(eris.Wrapf(ErrNotRegistered, "component key %s", key))
	}
	return store
}

// Components returns the column store for T. It panics when T is not registered.
func Components[T Keyed](r *Registry) *Column[T] {
	key := KeyOf[T]()
	store := r.mustStore(key, typeName[T]())
	col, ok := store.(*Column[T])
	if !ok {
		panic(eris.Wrapf(ErrTypeMismatch, "key %s is registered to %s, not %s", key, store.Name(), typeName[T]()))
	}
	return col
}

// SingletonOf returns the slot for T. It panics when T is not registered.
func SingletonOf[T Keyed](r *Registry) *SingletonSlot[T] {
	key := KeyOf[T]()
	erased := r.mustSingleton(key, typeName[T]())
	slot, ok := erased.(*SingletonSlot[T])
	if !ok {
		panic(eris.Wrapf(ErrTypeMismatch, "key %s is registered to %s, not %s", key, erased.Name(), typeName[T]()))
	}
	return slot
}

// Spawn allocates a new entity.
func (r *Registry) Spawn() EntityID {
	r.ensureOpen()
	return r.entities.Spawn()
}

// SpawnEntity allocates an entity and attaches components to it.
func (r *Registry) SpawnEntity(components ...Keyed) Entity {
	e, err := r.spawnWith(components)
	if err != nil {
		panic(err)
	}
	return e
}

func (r *Registry) spawnWith(components []Keyed) (Entity, error) {
	id := r.Spawn()
	for _, c := range components {
		if c == nil {
			continue
		}
		if err := r.mustStore(c.TypeKey(), fmtType(c)).InsertAny(id, c); err != nil {
			return Entity{id: id, registry: r}, err
		}
	}
	return Entity{id: id, registry: r}, nil
}

// Despawn frees the entity and removes it from every column store. It reports false for
// stale or unknown IDs.
func (r *Registry) Despawn(id EntityID) bool {
	r.ensureOpen()
	if !r.entities.Despawn(id) {
		return false
	}
	for _, store := range r.components {
		store.Remove(id)
	}
	return true
}

// Contains reports whether id refers to a live entity.
func (r *Registry) Contains(id EntityID) bool {
	return r.entities.Contains(id)
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return r.entities.Len()
}

// Entities yields live entity IDs in slot order. Route spawns and despawns made while
// ranging through Push.
func (r *Registry) Entities() iter.Seq[EntityID] {
	return r.entities.All()
}

// Entity returns a view bound to id when it is live.
func (r *Registry) Entity(id EntityID) (Entity, bool) {
	if !r.entities.Contains(id) {
		return Entity{}, false
	}
	return Entity{id: id, registry: r}, true
}

// Registry returns r, so a bare registry can be used wherever a Facade is expected.
func (r *Registry) Registry() *Registry {
	return r
}

// Attach stores v on a live entity, replacing any previous value. It reports false when
// the entity is not live or its current value is borrowed.
func Attach[T Keyed](r *Registry, id EntityID, v T) bool {
	col := Components[T](r)
	if !r.entities.Contains(id) {
		return false
	}
	return col.Insert(id, v)
}

// Detach removes and returns T from an entity. It reports false when the value is
// absent or currently borrowed.
func Detach[T Keyed](r *Registry, id EntityID) (T, bool) {
	col := Components[T](r)
	if !r.entities.Contains(id) {
		var zero T
		return zero, false
	}
	return col.Take(id)
}

// detachErased removes the value with key from id. A borrowed value is left in place
// and reported as ErrBorrowed.
func (r *Registry) detachErased(id EntityID, key TypeKey) (bool, error) {
	store := r.storeByKey(key)
	if !store.Has(id) {
		return false, nil
	}
	if store.Borrowed(id) {
		return false, eris.Wrapf(ErrBorrowed, "detach %s from %v", store.Name(), id)
	}
	return store.Remove(id), nil
}

// Has reports whether a live entity carries T.
func Has[T Keyed](r *Registry, id EntityID) bool {
	col := Components[T](r)
	return r.entities.Contains(id) && col.Has(id)
}

// Component borrows an entity's T for reading.
func Component[T Keyed](r *Registry, id EntityID) (*Ref[T], bool) {
	col := Components[T](r)
	if !r.entities.Contains(id) {
		return nil, false
	}
	return col.Get(id)
}

// ComponentMut borrows an entity's T for writing.
func ComponentMut[T Keyed](r *Registry, id EntityID) (*RefMut[T], bool) {
	col := Components[T](r)
	if !r.entities.Contains(id) {
		return nil, false
	}
	return col.GetMut(id)
}

// View runs fn with a shared borrow of an entity's T and releases it afterwards. It
// reports whether fn ran.
func View[T Keyed](r *Registry, id EntityID, fn func(*T)) bool {
	ref, ok := Component[T](r, id)
	if !ok {
		return false
	}
	defer ref.Release()
	fn(ref.Get())
	return true
}

// Update runs fn with an exclusive borrow of an entity's T and releases it afterwards.
// It reports whether fn ran.
func Update[T Keyed](r *Registry, id EntityID, fn func(*T)) bool {
	ref, ok := ComponentMut[T](r, id)
	if !ok {
		return false
	}
	defer ref.Release()
	fn(ref.Get())
	return true
}

// Singleton borrows the T singleton for reading.
func Singleton[T Keyed](r *Registry) (*Ref[T], bool) {
	return SingletonOf[T](r).Get()
}

// SingletonMut borrows the T singleton for writing.
func SingletonMut[T Keyed](r *Registry) (*RefMut[T], bool) {
	return SingletonOf[T](r).GetMut()
}

// ViewSingleton runs fn with a shared borrow of the T singleton.
func ViewSingleton[T Keyed](r *Registry, fn func(*T)) bool {
	ref, ok := Singleton[T](r)
	if !ok {
		return false
	}
	defer ref.Release()
	fn(ref.Get())
	return true
}

// UpdateSingleton runs fn with an exclusive borrow of the T singleton.
func UpdateSingleton[T Keyed](r *Registry, fn func(*T)) bool {
	ref, ok := SingletonMut[T](r)
	if !ok {
		return false
	}
	defer ref.Release()
	fn(ref.Get())
	return true
}

// Push queues a command for the next Execute. It is safe to call while ranging over
// entities or holding borrows.
func (r *Registry) Push(cmd Command) {
	r.commands.Push(cmd)
}

// Pending reports how many commands are waiting for Execute.
func (r *Registry) Pending() int {
	return r.commands.Len()
}

// Execute applies the commands queued so far, in push order. Commands pushed while it
// runs are left for the next call. A failing command does not stop the rest; all
// failures are returned together.
func (r *Registry) Execute() error {
	start := time.Now()
	cmds := r.commands.Drain()
	summary := ExecuteSummary{Commands: len(cmds)}
	var errs []error
	for i, cmd := range cmds {
		if err := cmd.Apply(r); err != nil {
			summary.Failed++
			errs = append(errs, eris.Wrapf(err, "command %d of %d", i+1, len(cmds)))
			continue
		}
		summary.Applied++
	}
	summary.Deferred = r.commands.Len()
	summary.Entities = r.entities.Len()
	summary.Duration = time.Since(start)
	if len(errs) > 0 {
		summary.Err = errors.Join(errs...)
	}
	r.observer.CommandsExecuted(summary)
	return summary.Err
}

// Clear despawns every entity, empties every column store and resets every singleton to
// its default. Registrations are kept.
func (r *Registry) Clear() {
	r.ensureOpen()
	r.entities.Clear()
	for _, store := range r.components {
		store.Clear()
	}
	for _, slot := range r.singletons {
		slot.Reset()
	}
	r.logger.Debug().Msg("registry cleared")
}

// Clone deep-copies the entity table and every store. The clone starts with an empty
// command queue and shares the original's codec, logger and observers.
func (r *Registry) Clone() *Registry {
	r.ensureOpen()
	clone := &Registry{
		entities:        r.entities.Clone(),
		components:      make(map[TypeKey]ErasedStore, len(r.components)),
		singletons:      make(map[TypeKey]ErasedSingleton, len(r.singletons)),
		schemas:         maps.Clone(r.schemas),
		commands:        NewCommandQueue(),
		codec:           r.codec,
		logger:          r.logger,
		metrics:         r.metrics,
		observers:       r.observers,
		observer:        r.observer,
		validateSchemas: r.validateSchemas,
	}
	for key, store := range r.components {
		clone.components[key] = store.Clone()
	}
	for key, slot := range r.singletons {
		clone.singletons[key] = slot.Clone()
	}
	r.logger.Debug().Int("entities", clone.entities.Len()).Msg("registry cloned")
	return clone
}

// Close tears down every store. The registry must not be used afterwards.
func (r *Registry) Close() {
	if r.closed {
		return
	}
	for _, store := range r.components {
		store.Teardown()
	}
	for _, slot := range r.singletons {
		slot.Teardown()
	}
	r.commands.Drain()
	r.closed = true
}

// Stats reports entity and per-store counts, sorted by type name.
func (r *Registry) Stats() Stats {
	stats := Stats{Entities: r.entities.Len()}
	for _, store := range r.components {
		stats.Components = append(stats.Components, StoreStats{
			Key:       store.Key(),
			Name:      store.Name(),
			Strategy:  store.Strategy().Name(),
			Len:       store.Len(),
			Contended: store.Contended(),
		})
	}
	for _, slot := range r.singletons {
		stats.Singletons = append(stats.Singletons, StoreStats{
			Key:       slot.Key(),
			Name:      slot.Name(),
			Len:       1,
			Contended: slot.Contended(),
		})
	}
	byName := func(a, b StoreStats) int { return cmp.Compare(a.Name, b.Name) }
	slices.SortFunc(stats.Components, byName)
	slices.SortFunc(stats.Singletons, byName)
	return stats
}
