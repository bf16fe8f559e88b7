package grantkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Ref identifies an entity by its owning collection and an opaque ID.
// The engine never interprets the ID; integers, UUIDs, and ULIDs all work.
type Ref struct {
	Type string // e.g. "user", "team", "project", "organization"
	ID   string // e.g. "42", "proj_9f3", "01J4M2..."
}

// NewRef creates a new Ref.
func NewRef(refType, id string) Ref {
	return Ref{Type: refType, ID: id}
}

// String returns a string representation of the reference.
func (r Ref) String() string {
	return r.Type + ":" + r.ID
}

// IsZero returns true when both fields are empty.
func (r Ref) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// Validate checks that both the type and the ID are present.
func (r Ref) Validate() error {
	if r.Type == "" || r.ID == "" {
		return NewError(ErrInvalidRef, "type and id are both required")
	}
	return nil
}

// Assignment represents a subject holding a role on a target.
// Under the replace strategy a (subject, target) pair has at most one row;
// under the add strategy one row per distinct role key.
type Assignment struct {
	bun.BaseModel `bun:"table:assignments,alias:a"`

	ID          string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SubjectType string    `bun:"subject_type,notnull"`
	SubjectID   string    `bun:"subject_id,notnull"`
	TargetType  string    `bun:"target_type,notnull"`
	TargetID    string    `bun:"target_id,notnull"`
	RoleKey     string    `bun:"role_key,notnull"` // codec output, not necessarily the role name
	TenantKey   string    `bun:"tenant_key,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Subject returns the subject side of the assignment as a Ref.
func (a *Assignment) Subject() Ref {
	return Ref{Type: a.SubjectType, ID: a.SubjectID}
}

// Target returns the target side of the assignment as a Ref.
func (a *Assignment) Target() Ref {
	return Ref{Type: a.TargetType, ID: a.TargetID}
}
