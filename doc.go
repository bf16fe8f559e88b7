// Package grantkit is an entity-relationship access-assignment engine.
//
// GrantKit records, queries, and revokes named roles between two arbitrary
// identities: a subject (a user, a team, a service account) and a target
// (a project, an organization, a repository). Both sides are opaque
// references of the form (type, id), so the engine works with any entity
// model the hosting application already has.
//
// # Core Concepts
//
// Ref: a tuple of (Type, ID) identifying an entity. Examples:
// ("user", "42"), ("project", "proj_9f3"), ("team", "01J4...").
//
// Role: a static descriptor with a unique name and a unique hierarchy level.
// Roles are registered once at startup; the engine never persists role
// definitions, only assignments.
//
// Assignment: a persisted record stating that a subject holds a role on a
// target. Depending on the configured strategy a subject holds at most one
// role per target (replace) or any number of distinct roles (add).
//
// # Key Features
//
//   - Entity-agnostic: subjects and targets are opaque (type, id) references
//   - Role hierarchy: pure integer level comparisons (IsAtLeast, IsHigherThan)
//   - Pluggable key storage: plain, salted-hash, or encrypted role keys
//   - Optional multitenancy: cross-tenant assignments are rejected up front
//   - Redis read-through cache with precise, synchronous invalidation
//   - Cross-store query planning: joins when entities share the assignment
//     store, ID-list filtering when they do not
//   - Domain events (assigned, changed, removed) for audit/notification
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	// 1. Build the codec and registry (at application startup)
//	codec, _ := grantkit.NewKeyCodec(grantkit.KeyStoragePlain, nil)
//	registry, err := grantkit.NewRegistry(codec,
//	    grantkit.Role{Name: "owner", Level: 100, Label: "Owner"},
//	    grantkit.Role{Name: "admin", Level: 90, Label: "Administrator"},
//	    grantkit.Role{Name: "editor", Level: 50, Label: "Editor"},
//	    grantkit.Role{Name: "viewer", Level: 10, Label: "Viewer"},
//	)
//
//	// 2. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := grantkit.NewService(registry, db)
//
//	// 3. Run migrations
//	db.Migrate(ctx, service.Migrations())
//
//	// 4. Assign and check roles
//	user := grantkit.NewRef("user", "42")
//	project := grantkit.NewRef("project", "proj_9f3")
//
//	service.Assign(ctx, user, project, "editor")
//	ok, _ := service.HasRoleOn(ctx, user, project, "editor")
//
// # Key Storage
//
// The string persisted for a role is produced by the KeyCodec. In plain mode
// it is the snake_case role name. In hashed mode it is an HMAC-SHA256 of the
// name under an application secret, so a database dump does not reveal which
// role a row grants. In encrypted mode it is a reversible AES-GCM ciphertext
// under the same secret. Lookups behave identically in all three modes.
//
// # Multitenancy
//
// With multitenancy enabled, a new assignment requires subject and target to
// share a tenant context; the matching tenant key is persisted on the record.
// Established assignments are never retroactively invalidated when a
// subject's tenant context changes afterward; only new assignments are gated.
//
// # Caching
//
// Read paths (HasRoleOn, RoleOn, Participants, AssignedTargets) can be served
// from Redis. Every mutating operation invalidates the affected entries
// before it returns, and results are identical with the cache disabled.
package grantkit
