package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pathways/internal/db"
	"github.com/alexanderramin/pathways/internal/domain"
)

// SQLProfileRepo implements ProfileRepo. Pathway refs, custom milestones and
// pathway configs are stored as JSON documents on the profile row.
type SQLProfileRepo struct {
	db db.DBTX
}

func NewSQLProfileRepo(conn db.DBTX) *SQLProfileRepo {
	return &SQLProfileRepo{db: conn}
}

func (r *SQLProfileRepo) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, display_name, specialty, pathway_refs,
		custom_milestones, pathway_configs, created_at, updated_at
		FROM user_profiles WHERE id = ?`, id)

	var (
		p                      domain.UserProfile
		refs, customs, configs string
		createdAt, updatedAt   string
	)
	err := row.Scan(&p.ID, &p.DisplayName, &p.Specialty, &refs, &customs, &configs, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	if err := decodeJSON(refs, &p.PathwayRefs); err != nil {
		return nil, err
	}
	if err := decodeJSON(customs, &p.CustomMilestones); err != nil {
		return nil, err
	}
	if err := decodeJSON(configs, &p.PathwayConfigs); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (r *SQLProfileRepo) Create(ctx context.Context, p *domain.UserProfile) error {
	refs, customs, configs, err := encodeProfileDocs(p)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err = r.db.ExecContext(ctx, `INSERT INTO user_profiles
		(id, display_name, specialty, pathway_refs, custom_milestones, pathway_configs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DisplayName, p.Specialty, refs, customs, configs, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (r *SQLProfileRepo) Update(ctx context.Context, p *domain.UserProfile) error {
	refs, customs, configs, err := encodeProfileDocs(p)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return r.exec(ctx, p.ID, "updating profile", `UPDATE user_profiles SET display_name = ?, specialty = ?,
		pathway_refs = ?, custom_milestones = ?, pathway_configs = ?, updated_at = ? WHERE id = ?`,
		p.DisplayName, p.Specialty, refs, customs, configs, formatTime(p.UpdatedAt), p.ID)
}

func (r *SQLProfileRepo) UpdateCustomMilestones(ctx context.Context, id string, customs []domain.CustomMilestone) error {
	doc, err := encodeJSON(customs, "[]")
	if err != nil {
		return err
	}
	return r.exec(ctx, id, "updating custom milestones",
		`UPDATE user_profiles SET custom_milestones = ?, updated_at = ? WHERE id = ?`,
		doc, formatTime(time.Now()), id)
}

func (r *SQLProfileRepo) UpdatePathwayConfigs(ctx context.Context, id string, configs map[string]domain.PathwayConfig) error {
	doc, err := encodeJSON(configs, "{}")
	if err != nil {
		return err
	}
	return r.exec(ctx, id, "updating pathway configs",
		`UPDATE user_profiles SET pathway_configs = ?, updated_at = ? WHERE id = ?`,
		doc, formatTime(time.Now()), id)
}

func (r *SQLProfileRepo) exec(ctx context.Context, id, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func encodeProfileDocs(p *domain.UserProfile) (refs, customs, configs string, err error) {
	if refs, err = encodeJSON(p.PathwayRefs, "[]"); err != nil {
		return
	}
	if customs, err = encodeJSON(p.CustomMilestones, "[]"); err != nil {
		return
	}
	configs, err = encodeJSON(p.PathwayConfigs, "{}")
	return
}
