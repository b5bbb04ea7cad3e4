package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/upgrade"
)

var (
	// errors
	ErrNotFound      = errors.New("enrollment not found")
	ErrExists        = errors.New("the user is already enrolled in this course")
	ErrUpgradeClosed = errors.New("the upgrade deadline has passed")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	}

	Service struct {
		repo      Repository
		courses   *course.Service
		deadlines *upgrade.Service
	}
)

func NewService(repo Repository, courses *course.Service, deadlines *upgrade.Service) *Service {
	return &Service{repo: repo, courses: courses, deadlines: deadlines}
}

// Enroll enrolls the user in the course, reactivating (and switching the mode of) an existing enrollment.
// The learner's upgrade deadline is computed when the enrollment is created.
// Paid tracks are refused once their expiration, or the learner's own upgrade deadline, has passed.
func (svc *Service) Enroll(ctx context.Context, userID, courseID, mode string) (Enrollment, error) {
	if mode == "" {
		mode = course.ModeAudit
	}
	crs, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	crsMode, err := svc.courseMode(ctx, courseID, mode)
	if err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	paid := !course.IsUpsellMode(mode)
	if paid && crsMode != nil && crsMode.IsExpired(now) {
		return Enrollment{}, ErrUpgradeClosed
	}

	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	switch errors.Cause(err) {
	case nil:
		if paid && course.IsUpsellMode(enr.Mode) {
			deadline, err := svc.UpgradeDeadline(ctx, enr, crs)
			if err != nil {
				return Enrollment{}, errors.Wrap(err, "getting upgrade deadline")
			}
			if deadline != nil && !deadline.After(now) {
				return Enrollment{}, ErrUpgradeClosed
			}
		}
		enr.Mode = mode
		enr.IsActive = true
		enr.UpdatedAt = now
		return svc.repo.UpdateEnrollment(ctx, enr)
	case ErrNotFound: // pass
	default:
		return Enrollment{}, errors.Wrap(err, "getting enrollment")
	}

	verifiedMode, err := svc.courses.VerifiedMode(ctx, courseID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "getting verified mode")
	}
	deadline, err := svc.deadlines.ScheduleDeadline(ctx, crs, verifiedMode, now)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "computing upgrade deadline")
	}
	start := now
	if crs.Start.After(start) {
		start = crs.Start
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		Mode:            mode,
		IsActive:        true,
		ScheduleStart:   start,
		UpgradeDeadline: deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *Service) Get(ctx context.Context, userID, courseID string) (Enrollment, error) {
	if userID == "" {
		return Enrollment{}, ErrNotFound
	}
	if _, err := course.ParseKey(courseID); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Enrollment, error) {
	var fErrs []core.FieldError
	for _, ord := range filter.Ordering {
		if !core.StringInSlice(ord.Field, OrderingFields) {
			fErrs = append(fErrs, core.FieldError{Field: "ordering", Error: "unknown field: " + ord.Field})
		}
	}
	if len(fErrs) > 0 {
		return nil, core.NewValidationError(nil, fErrs...)
	}
	return svc.repo.QueryEnrollments(ctx, filter)
}

// ChangeMode switches the learner to another track offered by the course, whatever the upgrade deadline.
func (svc *Service) ChangeMode(ctx context.Context, userID, courseID, mode string) (Enrollment, error) {
	enr, err := svc.Get(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if _, err = svc.courseMode(ctx, courseID, mode); err != nil {
		return Enrollment{}, err
	}
	enr.Mode = mode
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

func (svc *Service) Unenroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enr, err := svc.Get(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	enr.IsActive = false
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

// courseMode returns the course's mode with this slug, nil for an audit track the course does not list.
func (svc *Service) courseMode(ctx context.Context, courseID, mode string) (*course.Mode, error) {
	if !course.IsKnownMode(mode) {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "mode", Error: "unknown course mode"})
	}
	m, err := svc.courses.GetMode(ctx, courseID, mode)
	if err != nil {
		// every course offers the audit track
		if errors.Cause(err) == course.ErrModeNotFound && mode == course.ModeAudit {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// CourseUpgradeDeadline looks up the expiration of the course's verified mode, nil if there is none.
func (svc *Service) CourseUpgradeDeadline(ctx context.Context, enr Enrollment) (*time.Time, error) {
	mode, err := svc.courses.VerifiedMode(ctx, enr.CourseID)
	if err != nil || mode == nil {
		return nil, err
	}
	return mode.ExpirationDatetime, nil
}

// DynamicUpgradeDeadline returns the learner's own upgrade deadline.
// It is nil unless the course is self-paced and dynamic deadlines are enabled for it.
func (svc *Service) DynamicUpgradeDeadline(ctx context.Context, enr Enrollment, crs course.Course) (*time.Time, error) {
	if !crs.SelfPaced {
		return nil, nil
	}
	enabled, err := svc.deadlines.IsEnabled(ctx, crs.ID)
	if err != nil {
		return nil, err
	}
	return DynamicDeadline(enr, crs, enabled), nil
}

// UpgradeDeadline returns the dynamic upgrade deadline when one applies, the course upgrade deadline otherwise.
func (svc *Service) UpgradeDeadline(ctx context.Context, enr Enrollment, crs course.Course) (*time.Time, error) {
	deadline, err := svc.DynamicUpgradeDeadline(ctx, enr, crs)
	if err != nil || deadline != nil {
		return deadline, err
	}
	return svc.CourseUpgradeDeadline(ctx, enr)
}
