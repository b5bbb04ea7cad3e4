package upgrade

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
)

// ErrNotFound is returned by repositories when no configuration has been saved yet.
var ErrNotFound = errors.New("configuration not found")

type (
	Repository interface {
		CurrentConfig(ctx context.Context) (Config, error)
		SaveConfig(ctx context.Context, cfg Config) (Config, error)
		CurrentCourseConfig(ctx context.Context, courseID string) (CourseConfig, error)
		SaveCourseConfig(ctx context.Context, cfg CourseConfig) (CourseConfig, error)
	}

	Service struct {
		repo        Repository
		defaultDays int
	}
)

// NewService returns a Service falling back to defaultDays when no configuration sets the deadline days.
func NewService(repo Repository, defaultDays int) *Service {
	if defaultDays <= 0 {
		defaultDays = DefaultDeadlineDays
	}
	return &Service{repo: repo, defaultDays: defaultDays}
}

// CurrentConfig returns the global configuration; a disabled one if none was ever saved.
func (svc *Service) CurrentConfig(ctx context.Context) (Config, error) {
	cfg, err := svc.repo.CurrentConfig(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Config{}, nil
		}
		return Config{}, errors.Wrap(err, "getting current config")
	}
	return cfg, nil
}

// CurrentCourseConfig returns the course's configuration; a disabled one if none was ever saved.
func (svc *Service) CurrentCourseConfig(ctx context.Context, courseID string) (CourseConfig, error) {
	cfg, err := svc.repo.CurrentCourseConfig(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return CourseConfig{CourseID: courseID}, nil
		}
		return CourseConfig{}, errors.Wrap(err, "getting current course config")
	}
	return cfg, nil
}

// IsEnabled reports whether dynamic upgrade deadlines apply to the course.
func (svc *Service) IsEnabled(ctx context.Context, courseID string) (bool, error) {
	cfg, err := svc.CurrentConfig(ctx)
	if err != nil || !cfg.Enabled {
		return false, err
	}
	crsCfg, err := svc.CurrentCourseConfig(ctx, courseID)
	if err != nil {
		return false, err
	}
	return !(crsCfg.Enabled && crsCfg.OptOut), nil
}

// DeadlineDays returns the number of days learners of the course have to upgrade.
func (svc *Service) DeadlineDays(ctx context.Context, courseID string) (int, error) {
	crsCfg, err := svc.CurrentCourseConfig(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if crsCfg.Enabled && crsCfg.DeadlineDays > 0 {
		return crsCfg.DeadlineDays, nil
	}
	cfg, err := svc.CurrentConfig(ctx)
	if err != nil {
		return 0, err
	}
	if cfg.DeadlineDays > 0 {
		return cfg.DeadlineDays, nil
	}
	return svc.defaultDays, nil
}

// ScheduleDeadline computes the upgrade deadline of a learner enrolling in crs at enrolledAt:
// the later of enrolledAt and the course start, plus the deadline days.
// The deadline never falls after the expiration of the verified mode, if one is set.
func (svc *Service) ScheduleDeadline(ctx context.Context, crs course.Course, verifiedMode *course.Mode, enrolledAt time.Time) (*time.Time, error) {
	days, err := svc.DeadlineDays(ctx, crs.ID)
	if err != nil {
		return nil, err
	}
	start := enrolledAt.UTC()
	if crs.Start.After(start) {
		start = crs.Start.UTC()
	}
	deadline := start.Add(time.Duration(days) * 24 * time.Hour)
	if verifiedMode != nil {
		return core.MinTime(&deadline, verifiedMode.ExpirationDatetime), nil
	}
	return &deadline, nil
}

func (svc *Service) SaveConfig(ctx context.Context, uc UpdateConfig, changedBy string) (Config, error) {
	if err := core.Validate.Struct(uc); err != nil {
		return Config{}, err
	}
	return svc.repo.SaveConfig(ctx, Config{
		Enabled:      uc.Enabled,
		DeadlineDays: uc.DeadlineDays,
		ChangedBy:    changedBy,
		ChangedAt:    time.Now().UTC(),
	})
}

func (svc *Service) Enable(ctx context.Context, days int, changedBy string) (Config, error) {
	return svc.SaveConfig(ctx, UpdateConfig{Enabled: true, DeadlineDays: days}, changedBy)
}

func (svc *Service) Disable(ctx context.Context, changedBy string) (Config, error) {
	cfg, err := svc.CurrentConfig(ctx)
	if err != nil {
		return Config{}, err
	}
	return svc.SaveConfig(ctx, UpdateConfig{Enabled: false, DeadlineDays: cfg.DeadlineDays}, changedBy)
}

func (svc *Service) SaveCourseConfig(ctx context.Context, courseID string, uc UpdateCourseConfig, changedBy string) (CourseConfig, error) {
	if _, err := course.ParseKey(courseID); err != nil {
		return CourseConfig{}, err
	}
	if err := core.Validate.Struct(uc); err != nil {
		return CourseConfig{}, err
	}
	return svc.repo.SaveCourseConfig(ctx, CourseConfig{
		CourseID:     courseID,
		Enabled:      uc.Enabled,
		OptOut:       uc.OptOut,
		DeadlineDays: uc.DeadlineDays,
		ChangedBy:    changedBy,
		ChangedAt:    time.Now().UTC(),
	})
}
