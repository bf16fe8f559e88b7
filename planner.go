package grantkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// EntitySource describes where the entities behind one type tag live.
//
// When Relation reports ok, the entity rows share the assignment store and
// listing queries run as a single join against the given table. When it does
// not, the planner queries the assignment table alone for identity pairs and
// narrows them through ListExisting with an inclusion filter. Both
// strategies return identical result sets for identical data.
type EntitySource interface {
	// Relation returns the table and ID column to join against, when the
	// entities live in the same store as the assignment table.
	Relation() (table, idColumn string, ok bool)

	// ListExisting filters the given IDs down to those that exist in the
	// entity's own store. Only called when Relation reports !ok.
	ListExisting(ctx context.Context, ids []string) ([]string, error)
}

// BunSource is an EntitySource for entities stored in the same database as
// the assignment table.
type BunSource struct {
	db       dbkit.IDB
	table    string
	idColumn string
}

// NewBunSource creates a same-store entity source.
func NewBunSource(db dbkit.IDB, table, idColumn string) *BunSource {
	return &BunSource{db: db, table: table, idColumn: idColumn}
}

// Relation implements EntitySource.
func (s *BunSource) Relation() (string, string, bool) {
	return s.table, s.idColumn, true
}

// ListExisting implements EntitySource. Available so same-store sources can
// also serve the ID-list strategy; the planner prefers the join.
func (s *BunSource) ListExisting(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []string
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT "+s.idColumn+" FROM "+s.table+" WHERE "+s.idColumn+" IN (?)",
		bun.In(ids),
	).Scan(ctx, &existing), "ListExisting").Err()
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// planner chooses between the join-based and the ID-list-based query
// strategy per entity type, depending on where that type's rows live.
type planner struct {
	db      dbkit.IDB
	sources map[string]EntitySource
}

func newPlanner(db dbkit.IDB) *planner {
	return &planner{db: db, sources: make(map[string]EntitySource)}
}

func (p *planner) register(typeTag string, src EntitySource) {
	p.sources[typeTag] = src
}

// participants lists subject refs holding an assignment on the target.
// roleKey narrows to one role when non-empty.
func (p *planner) participants(ctx context.Context, target Ref, roleKey string) ([]Ref, error) {
	var rows []Assignment
	q := p.db.NewSelect().Model(&rows).
		Column("subject_type", "subject_id").
		Distinct().
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Order("subject_type ASC", "subject_id ASC")
	if roleKey != "" {
		q = q.Where("role_key = ?", roleKey)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "ListParticipants").Err(); err != nil {
		return nil, err
	}

	refs := make([]Ref, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.Subject())
	}
	return p.filterExisting(ctx, refs, func(typeTag, table, idColumn string) *bun.SelectQuery {
		jq := p.db.NewSelect().Model((*Assignment)(nil)).
			Column("subject_type", "subject_id").
			Distinct().
			Join("JOIN "+table+" AS e ON e."+idColumn+" = a.subject_id").
			Where("a.subject_type = ? AND a.target_type = ? AND a.target_id = ?", typeTag, target.Type, target.ID).
			Order("subject_id ASC")
		if roleKey != "" {
			jq = jq.Where("a.role_key = ?", roleKey)
		}
		return jq
	}, func(a Assignment) Ref { return a.Subject() })
}

// assignedTargets lists target refs of one type the subject holds any role on.
func (p *planner) assignedTargets(ctx context.Context, subject Ref, targetType string) ([]Ref, error) {
	var rows []Assignment
	q := p.db.NewSelect().Model(&rows).
		Column("target_type", "target_id").
		Distinct().
		Where("subject_type = ? AND subject_id = ? AND target_type = ?", subject.Type, subject.ID, targetType).
		Order("target_id ASC")
	if err := dbkit.WithErr1(q.Scan(ctx), "ListAssignedTargets").Err(); err != nil {
		return nil, err
	}

	refs := make([]Ref, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.Target())
	}
	return p.filterExisting(ctx, refs, func(typeTag, table, idColumn string) *bun.SelectQuery {
		return p.db.NewSelect().Model((*Assignment)(nil)).
			Column("target_type", "target_id").
			Distinct().
			Join("JOIN "+table+" AS e ON e."+idColumn+" = a.target_id").
			Where("a.subject_type = ? AND a.subject_id = ? AND a.target_type = ?", subject.Type, subject.ID, typeTag).
			Order("target_id ASC")
	}, func(a Assignment) Ref { return a.Target() })
}

// filterExisting narrows refs to entities that actually exist, per type tag.
// Types without a registered source pass through: the assignment table is
// authoritative for them.
func (p *planner) filterExisting(
	ctx context.Context,
	refs []Ref,
	joinQuery func(typeTag, table, idColumn string) *bun.SelectQuery,
	toRef func(Assignment) Ref,
) ([]Ref, error) {
	byType := make(map[string][]string)
	for _, ref := range refs {
		byType[ref.Type] = append(byType[ref.Type], ref.ID)
	}

	keep := make(map[string]map[string]bool, len(byType))
	for typeTag, ids := range byType {
		src, registered := p.sources[typeTag]
		if !registered {
			continue
		}

		existing := make(map[string]bool, len(ids))
		if table, idColumn, sameStore := src.Relation(); sameStore {
			var rows []Assignment
			err := dbkit.WithErr1(joinQuery(typeTag, table, idColumn).Scan(ctx, &rows), "JoinFilter").Err()
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				existing[toRef(row).ID] = true
			}
		} else {
			found, err := src.ListExisting(ctx, ids)
			if err != nil {
				return nil, NewError(ErrDatabase, "entity source for "+typeTag+": "+err.Error())
			}
			for _, id := range found {
				existing[id] = true
			}
		}
		keep[typeTag] = existing
	}

	out := refs[:0]
	for _, ref := range refs {
		if existing, filtered := keep[ref.Type]; filtered && !existing[ref.ID] {
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}
