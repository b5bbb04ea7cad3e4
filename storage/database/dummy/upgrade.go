package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/coursetools/core/upgrade"
)

type upgradeConfigRepository struct {
	db *upgradeTable
}

var _ upgrade.Repository = (*upgradeConfigRepository)(nil) // interface compliance check

func NewUpgradeConfigRepository(db *DB) upgrade.Repository {
	return &upgradeConfigRepository{db: db.upgrade}
}

func (repo *upgradeConfigRepository) CurrentConfig(_ context.Context) (upgrade.Config, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n := len(repo.db.configs); n > 0 {
		return repo.db.configs[n-1], nil
	}
	return upgrade.Config{}, upgrade.ErrNotFound
}

func (repo *upgradeConfigRepository) SaveConfig(_ context.Context, cfg upgrade.Config) (upgrade.Config, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cfg.ID = uuid.New().String()
	repo.db.configs = append(repo.db.configs, cfg)
	return cfg, nil
}

func (repo *upgradeConfigRepository) CurrentCourseConfig(_ context.Context, courseID string) (upgrade.CourseConfig, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if history := repo.db.courseConfigs[courseID]; len(history) > 0 {
		return history[len(history)-1], nil
	}
	return upgrade.CourseConfig{}, upgrade.ErrNotFound
}

func (repo *upgradeConfigRepository) SaveCourseConfig(_ context.Context, cfg upgrade.CourseConfig) (upgrade.CourseConfig, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cfg.ID = uuid.New().String()
	repo.db.courseConfigs[cfg.CourseID] = append(repo.db.courseConfigs[cfg.CourseID], cfg)
	return cfg, nil
}
