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

// SQLUserMilestoneRepo implements UserMilestoneRepo.
type SQLUserMilestoneRepo struct {
	db db.DBTX
}

func NewSQLUserMilestoneRepo(conn db.DBTX) *SQLUserMilestoneRepo {
	return &SQLUserMilestoneRepo{db: conn}
}

const userMilestoneColumns = `id, user_id, milestone_id, milestone_name, status, completed_at, notes, updated_at`

func (r *SQLUserMilestoneRepo) ListByUser(ctx context.Context, userID string) ([]domain.UserMilestoneStatus, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userMilestoneColumns+`
		FROM user_milestones WHERE user_id = ? ORDER BY updated_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user milestones: %w", err)
	}
	defer rows.Close()

	var out []domain.UserMilestoneStatus
	for rows.Next() {
		s, err := scanUserMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLUserMilestoneRepo) Get(ctx context.Context, userID, milestoneID string) (*domain.UserMilestoneStatus, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userMilestoneColumns+`
		FROM user_milestones WHERE user_id = ? AND milestone_id = ?`, userID, milestoneID)
	s, err := scanUserMilestone(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("milestone status %s/%s: %w", userID, milestoneID, ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLUserMilestoneRepo) Upsert(ctx context.Context, s *domain.UserMilestoneStatus) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	var completedAt *time.Time
	if s.Status == domain.MilestoneDone {
		completedAt = s.CompletedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_milestones
		(`+userMilestoneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, milestone_id) DO UPDATE SET
			milestone_name = excluded.milestone_name,
			status = excluded.status,
			completed_at = excluded.completed_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		s.ID, s.UserID, s.MilestoneID, s.MilestoneName, string(s.Status),
		nullableTimeToString(completedAt, time.RFC3339Nano), s.Notes, formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting milestone status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserMilestone(row rowScanner) (*domain.UserMilestoneStatus, error) {
	var (
		s           domain.UserMilestoneStatus
		status      string
		completedAt sql.NullString
		updatedAt   string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.MilestoneID, &s.MilestoneName, &status,
		&completedAt, &s.Notes, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning milestone status: %w", err)
	}
	st, err := domain.ParseMilestoneStatus(status)
	if err != nil {
		return nil, err
	}
	s.Status = st
	s.CompletedAt = parseNullableTime(completedAt, time.RFC3339Nano)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
