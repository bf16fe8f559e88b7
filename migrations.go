package grantkit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for GrantKit.
// Use db.Migrate(ctx, service.Migrations()) to run them.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "grantkit-001",
			Description: "Create assignments table",
			SQL: `
                CREATE TABLE IF NOT EXISTS assignments (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    subject_type TEXT NOT NULL,
                    subject_id TEXT NOT NULL,
                    target_type TEXT NOT NULL,
                    target_id TEXT NOT NULL,
                    role_key TEXT NOT NULL,
                    tenant_key TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "grantkit-002",
			Description: "Unique constraint per subject, target, and role key",
			SQL: `
                CREATE UNIQUE INDEX IF NOT EXISTS ux_assignments_pair_role
                    ON assignments (subject_type, subject_id, target_type, target_id, role_key)`,
		},
		{
			ID:          "grantkit-003",
			Description: "Secondary indexes for listing operations",
			SQL: `
                CREATE INDEX IF NOT EXISTS ix_assignments_subject
                    ON assignments (subject_type, subject_id);
                CREATE INDEX IF NOT EXISTS ix_assignments_target
                    ON assignments (target_type, target_id)`,
		},
		{
			ID:          "grantkit-004",
			Description: "Tenant index for scoped purges",
			SQL: `
                CREATE INDEX IF NOT EXISTS ix_assignments_tenant
                    ON assignments (tenant_key) WHERE tenant_key IS NOT NULL`,
		},
	}
}
