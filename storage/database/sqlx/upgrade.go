package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/upgrade"
)

const (
	upgradeConfigColumns       = `id, enabled, deadline_days, changed_by, changed_at`
	courseUpgradeConfigColumns = `id, course_id, enabled, opt_out, deadline_days, changed_by, changed_at`
)

type upgradeConfigRow struct {
	ID           string    `db:"id"`
	CourseID     string    `db:"course_id"`
	Enabled      bool      `db:"enabled"`
	OptOut       bool      `db:"opt_out"`
	DeadlineDays int       `db:"deadline_days"`
	ChangedBy    string    `db:"changed_by"`
	ChangedAt    time.Time `db:"changed_at"`
}

type upgradeConfigRepository struct {
	exec Executor
}

var _ upgrade.Repository = (*upgradeConfigRepository)(nil) // interface compliance check

// NewUpgradeConfigRepository returns an upgrade.Repository keeping the history of configurations:
// the latest saved configuration is the current one.
func NewUpgradeConfigRepository(exec Executor) upgrade.Repository {
	return &upgradeConfigRepository{exec: exec}
}

func (repo upgradeConfigRepository) CurrentConfig(ctx context.Context) (upgrade.Config, error) {
	var row upgradeConfigRow
	if err := sqlx.GetContext(ctx, repo.exec, &row,
		`SELECT `+upgradeConfigColumns+` FROM upgrade_config ORDER BY changed_at DESC LIMIT 1`,
	); err != nil {
		if err == sql.ErrNoRows {
			return upgrade.Config{}, upgrade.ErrNotFound
		}
		return upgrade.Config{}, errors.Wrap(err, "getting upgrade config")
	}
	return upgrade.Config{
		ID:           row.ID,
		Enabled:      row.Enabled,
		DeadlineDays: row.DeadlineDays,
		ChangedBy:    row.ChangedBy,
		ChangedAt:    row.ChangedAt.UTC(),
	}, nil
}

func (repo upgradeConfigRepository) SaveConfig(ctx context.Context, cfg upgrade.Config) (upgrade.Config, error) {
	cfg.ID = uuid.New().String()
	if _, err := repo.exec.ExecContext(ctx,
		`INSERT INTO upgrade_config (`+upgradeConfigColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		cfg.ID, cfg.Enabled, cfg.DeadlineDays, cfg.ChangedBy, cfg.ChangedAt.UTC(),
	); err != nil {
		return upgrade.Config{}, errors.Wrap(err, "inserting upgrade config")
	}
	return cfg, nil
}

func (repo upgradeConfigRepository) CurrentCourseConfig(ctx context.Context, courseID string) (upgrade.CourseConfig, error) {
	var row upgradeConfigRow
	if err := sqlx.GetContext(ctx, repo.exec, &row,
		`SELECT `+courseUpgradeConfigColumns+` FROM course_upgrade_config WHERE course_id = $1 ORDER BY changed_at DESC LIMIT 1`,
		courseID,
	); err != nil {
		if err == sql.ErrNoRows {
			return upgrade.CourseConfig{}, upgrade.ErrNotFound
		}
		return upgrade.CourseConfig{}, errors.Wrap(err, "getting course upgrade config")
	}
	return upgrade.CourseConfig{
		ID:           row.ID,
		CourseID:     row.CourseID,
		Enabled:      row.Enabled,
		OptOut:       row.OptOut,
		DeadlineDays: row.DeadlineDays,
		ChangedBy:    row.ChangedBy,
		ChangedAt:    row.ChangedAt.UTC(),
	}, nil
}

func (repo upgradeConfigRepository) SaveCourseConfig(ctx context.Context, cfg upgrade.CourseConfig) (upgrade.CourseConfig, error) {
	cfg.ID = uuid.New().String()
	if _, err := repo.exec.ExecContext(ctx,
		`INSERT INTO course_upgrade_config (`+courseUpgradeConfigColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cfg.ID, cfg.CourseID, cfg.Enabled, cfg.OptOut, cfg.DeadlineDays, cfg.ChangedBy, cfg.ChangedAt.UTC(),
	); err != nil {
		return upgrade.CourseConfig{}, errors.Wrap(err, "inserting course upgrade config")
	}
	return cfg, nil
}
