package grantkit

import (
	"fmt"
	"sort"
)

// Role is the static definition of a role: a unique name, a unique hierarchy
// level, and display metadata. Roles are registered once at startup and are
// immutable for the process lifetime; they are never persisted as rows.
type Role struct {
	Name        string // unique within a registry, e.g. "admin"
	Level       int    // unique within a registry, >= 1; higher outranks lower
	Label       string // human-readable, e.g. "Administrator"
	Description string
}

// IsHigherThan reports whether r outranks other.
func (r Role) IsHigherThan(other Role) bool {
	return r.Level > other.Level
}

// IsLowerThan reports whether other outranks r.
func (r Role) IsLowerThan(other Role) bool {
	return r.Level < other.Level
}

// IsAtLeast reports whether r ranks at or above other. Reflexive.
func (r Role) IsAtLeast(other Role) bool {
	return r.Level >= other.Level
}

// Equals reports whether both descriptors sit on the same hierarchy level.
func (r Role) Equals(other Role) bool {
	return r.Level == other.Level
}

// Registry holds all role definitions for the application. Registration
// conflicts (duplicate name or level) fail at build time so an ambiguous
// hierarchy never reaches the assignment store.
type Registry struct {
	codec  *KeyCodec
	byName map[string]Role
	keys   map[string]string // role name -> storage key, precomputed
}

// NewRegistry builds a registry from an explicit list of role descriptors.
// Storage keys are computed once through the codec, so an encode failure
// also surfaces here rather than at first use.
func NewRegistry(codec *KeyCodec, roles ...Role) (*Registry, error) {
	if codec == nil {
		return nil, NewError(ErrInvalidConfig, "registry requires a key codec")
	}
	if len(roles) == 0 {
		return nil, NewError(ErrInvalidConfig, "registry requires at least one role")
	}

	reg := &Registry{
		codec:  codec,
		byName: make(map[string]Role, len(roles)),
		keys:   make(map[string]string, len(roles)),
	}

	byLevel := make(map[int]string, len(roles))
	for _, role := range roles {
		if role.Name == "" {
			return nil, NewError(ErrInvalidConfig, "role name must not be empty")
		}
		if role.Level < 1 {
			return nil, NewError(ErrInvalidConfig, fmt.Sprintf("role %q: level must be >= 1, got %d", role.Name, role.Level))
		}
		if _, dup := reg.byName[role.Name]; dup {
			return nil, NewError(ErrInvalidConfig, fmt.Sprintf("duplicate role name %q", role.Name))
		}
		if prior, dup := byLevel[role.Level]; dup {
			return nil, NewError(ErrInvalidConfig, fmt.Sprintf("roles %q and %q share level %d", prior, role.Name, role.Level))
		}

		key, err := codec.Encode(role)
		if err != nil {
			return nil, err
		}

		reg.byName[role.Name] = role
		reg.keys[role.Name] = key
		byLevel[role.Level] = role.Name
	}

	return reg, nil
}

// Resolve returns the descriptor for a role identifier. The identifier may
// be a plain role name or, transparently, a previously computed storage key;
// storage keys are reversed through the codec for the active mode.
func (r *Registry) Resolve(identifier string) (Role, error) {
	if role, ok := r.byName[identifier]; ok {
		return role, nil
	}
	return r.codec.Decode(identifier, r.byName)
}

// MustResolve is Resolve for static role names known at compile time.
// It panics on failure and belongs in initialization paths only.
func (r *Registry) MustResolve(identifier string) Role {
	role, err := r.Resolve(identifier)
	if err != nil {
		panic(err)
	}
	return role
}

// Exists reports whether an identifier resolves to a registered role.
func (r *Registry) Exists(identifier string) bool {
	_, err := r.Resolve(identifier)
	return err == nil
}

// StorageKey returns the persisted key for a registered role name.
func (r *Registry) StorageKey(name string) (string, error) {
	key, ok := r.keys[name]
	if !ok {
		return "", NewError(ErrRoleNotFound, "role "+name+" is not registered").WithRole(name)
	}
	return key, nil
}

// All returns every registered role keyed by name. The returned map is a
// copy; mutating it does not affect the registry.
func (r *Registry) All() map[string]Role {
	out := make(map[string]Role, len(r.byName))
	for name, role := range r.byName {
		out[name] = role
	}
	return out
}

// Names returns all registered role names sorted by descending level.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.byName[names[i]].Level > r.byName[names[j]].Level
	})
	return names
}

// Codec returns the key codec the registry resolves storage keys with.
func (r *Registry) Codec() *KeyCodec {
	return r.codec
}
