package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pathways/internal/db"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/google/uuid"
)

// SQLPathwayRepo implements PathwayRepo over SQLite or Postgres.
type SQLPathwayRepo struct {
	db db.DBTX
}

// NewSQLPathwayRepo creates a new SQLPathwayRepo. conn must already be
// adapted to its dialect (see db.ForDialect).
func NewSQLPathwayRepo(conn db.DBTX) *SQLPathwayRepo {
	return &SQLPathwayRepo{db: conn}
}

func (r *SQLPathwayRepo) Upsert(ctx context.Context, p *domain.Pathway) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `INSERT INTO pathways
		(id, name, description, country, target_role, estimated_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			country = excluded.country,
			target_role = excluded.target_role,
			estimated_duration = excluded.estimated_duration,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Description, p.Country, p.TargetRole, p.EstimatedDuration, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting pathway %s: %w", p.ID, err)
	}

	for _, req := range p.Requirements {
		alts, err := encodeJSON(req.Alternatives, "[]")
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, `INSERT INTO pathway_milestones
			(id, pathway_id, name, category, is_required, display_order, description, resource_url, alternatives)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (pathway_id, name) DO UPDATE SET
				category = excluded.category,
				is_required = excluded.is_required,
				display_order = excluded.display_order,
				description = excluded.description,
				resource_url = excluded.resource_url,
				alternatives = excluded.alternatives`,
			uuid.New().String(), p.ID, req.Name, string(req.Category), boolToInt(req.Required),
			req.Order, req.Description, req.ResourceURL, alts,
		)
		if err != nil {
			return fmt.Errorf("upserting requirement %q: %w", req.Name, err)
		}
	}

	ids, err := r.requirementIDs(ctx, p.ID)
	if err != nil {
		return err
	}
	for i := range p.Requirements {
		p.Requirements[i].DBID = ids[p.Requirements[i].Name]
	}
	return nil
}

func (r *SQLPathwayRepo) requirementIDs(ctx context.Context, pathwayID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM pathway_milestones WHERE pathway_id = ?`, pathwayID)
	if err != nil {
		return nil, fmt.Errorf("listing requirement ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning requirement id: %w", err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

func (r *SQLPathwayRepo) GetByID(ctx context.Context, id string) (*domain.Pathway, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, description, country, target_role, estimated_duration
		FROM pathways WHERE id = ?`, id)
	var p domain.Pathway
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Country, &p.TargetRole, &p.EstimatedDuration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pathway %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning pathway: %w", err)
	}

	reqs, err := r.listRequirements(ctx, `WHERE pathway_id = ?`, id)
	if err != nil {
		return nil, err
	}
	p.Requirements = reqs[p.ID]
	return &p, nil
}

func (r *SQLPathwayRepo) List(ctx context.Context) ([]*domain.Pathway, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, country, target_role, estimated_duration
		FROM pathways ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing pathways: %w", err)
	}
	var pathways []*domain.Pathway
	for rows.Next() {
		var p domain.Pathway
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Country, &p.TargetRole, &p.EstimatedDuration); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning pathway: %w", err)
		}
		pathways = append(pathways, &p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating pathways: %w", err)
	}
	rows.Close()

	reqs, err := r.listRequirements(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range pathways {
		p.Requirements = reqs[p.ID]
	}
	return pathways, nil
}

func (r *SQLPathwayRepo) listRequirements(ctx context.Context, where string, args ...any) (map[string][]domain.Requirement, error) {
	query := `SELECT id, pathway_id, name, category, is_required, display_order, description, resource_url, alternatives
		FROM pathway_milestones ` + where + ` ORDER BY pathway_id, display_order, name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requirements: %w", err)
	}
	defer rows.Close()

	out := map[string][]domain.Requirement{}
	for rows.Next() {
		var (
			req       domain.Requirement
			pathwayID string
			category  string
			required  int
			alts      string
		)
		if err := rows.Scan(&req.DBID, &pathwayID, &req.Name, &category, &required,
			&req.Order, &req.Description, &req.ResourceURL, &alts); err != nil {
			return nil, fmt.Errorf("scanning requirement: %w", err)
		}
		req.Category = domain.ResolveCategory(category)
		req.Required = intToBool(required)
		if err := decodeJSON(alts, &req.Alternatives); err != nil {
			return nil, err
		}
		out[pathwayID] = append(out[pathwayID], req)
	}
	return out, rows.Err()
}

func (r *SQLPathwayRepo) DeleteRequirement(ctx context.Context, pathwayID, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pathway_milestones WHERE pathway_id = ? AND name = ?`, pathwayID, name)
	if err != nil {
		return fmt.Errorf("deleting requirement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("requirement %q: %w", name, ErrNotFound)
	}
	return nil
}
