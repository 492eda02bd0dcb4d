package simstore

import (
	"github.com/rotisserie/eris"

	"github.com/DangerosoDavo/simstore/codec"
)

// snapshot is the envelope written by Serialize. Store payloads are encoded by the
// stores themselves and keyed by the canonical form of their type key.
type snapshot struct {
	Entities   EntityTableSnapshot `json:"entities"`
	Components map[string][]byte   `json:"components"`
	Singletons map[string][]byte   `json:"singletons"`
	Schemas    map[string][]byte   `json:"schemas,omitempty"`
}

// Serialize encodes the entity table and every store with the registry's codec.
func (r *Registry) Serialize() ([]byte, error) {
	r.ensureOpen()
	snap := snapshot{
		Entities:   r.entities.Snapshot(),
		Components: make(map[string][]byte, len(r.components)),
		Singletons: make(map[string][]byte, len(r.singletons)),
	}
	for key, store := range r.components {
		bz, err := store.Serialize(r.codec)
		if err != nil {
			return nil, err
		}
		snap.Components[key.String()] = bz
	}
	for key, slot := range r.singletons {
		bz, err := slot.Serialize(r.codec)
		if err != nil {
			return nil, err
		}
		snap.Singletons[key.String()] = bz
	}
	if r.validateSchemas {
		snap.Schemas = make(map[string][]byte, len(r.schemas))
		for key, schema := range r.schemas {
			snap.Schemas[key.String()] = schema
		}
	}
	bz, err := r.codec.Marshal(snap)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode snapshot")
	}
	return bz, nil
}

// Deserialize replaces the entity table wholesale and, for every store present in the
// snapshot and registered here, that store's contents. Snapshot stores with no matching
// registration are skipped. Registered column stores missing from the snapshot are
// emptied, since their rows referred to the replaced entity table; singletons missing
// from the snapshot keep their value.
//
// A codec failure is returned as is; stores restored before the failure stay restored.
func (r *Registry) Deserialize(bz []byte) error {
	r.ensureOpen()
	var snap snapshot
	if err := r.codec.Unmarshal(bz, &snap); err != nil {
		return eris.Wrap(err, "failed to decode snapshot")
	}
	if err := r.entities.Restore(snap.Entities); err != nil {
		return err
	}

	restored := make(map[TypeKey]bool, len(snap.Components))
	for raw, data := range snap.Components {
		key, store, ok := r.snapshotStore(raw)
		if !ok || !r.schemaMatches(key, store.Name(), snap.Schemas[raw]) {
			continue
		}
		if err := store.Deserialize(r.codec, data); err != nil {
			return err
		}
		restored[key] = true
	}
	for key, store := range r.components {
		if !restored[key] {
			store.Clear()
		}
	}

	for raw, data := range snap.Singletons {
		key, err := ParseTypeKey(raw)
		if err != nil {
			r.logger.Debug().Str("key", raw).Msg("skipping malformed singleton key in snapshot")
			continue
		}
		slot, ok := r.singletons[key]
		if !ok {
			r.logger.Debug().Str("key", raw).Msg("skipping unregistered singleton in snapshot")
			continue
		}
		if !r.schemaMatches(key, slot.Name(), snap.Schemas[raw]) {
			continue
		}
		if err := slot.Deserialize(r.codec, data); err != nil {
			return err
		}
	}
	r.logger.Debug().
		Int("entities", r.entities.Len()).
		Int("components", len(restored)).
		Msg("registry deserialized")
	return nil
}

func (r *Registry) snapshotStore(raw string) (TypeKey, ErasedStore, bool) {
	key, err := ParseTypeKey(raw)
	if err != nil {
		r.logger.Debug().Str("key", raw).Msg("skipping malformed component key in snapshot")
		return TypeKey{}, nil, false
	}
	store, ok := r.components[key]
	if !ok {
		r.logger.Debug().Str("key", raw).Msg("skipping unregistered component in snapshot")
		return key, nil, false
	}
	return key, store, true
}

// schemaMatches reports whether a store recorded in a snapshot may be decoded into the
// registered type. Without validation, or without a recorded schema, it always may.
func (r *Registry) schemaMatches(key TypeKey, name string, recorded []byte) bool {
	current, ok := r.schemas[key]
	if !r.validateSchemas || !ok || len(recorded) == 0 {
		return true
	}
	diff, err := codec.SchemaDiff(recorded, current)
	if err == nil && diff == "" {
		return true
	}
	if err == nil {
		err = eris.Wrapf(ErrSchemaMismatch, "%s: %s", name, diff)
	}
	r.logger.Warn().Err(err).Str("type", name).Str("key", key.String()).Msg("skipping snapshot store")
	return false
}
