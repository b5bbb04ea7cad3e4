package coursetool

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrUnknownTool = errors.New("unknown course tool")
)

type (
	// Request is the context a tool is evaluated in.
	Request struct {
		User *user.User // nil for anonymous requests
		Now  time.Time  // UTC
	}

	// Tool is a course tool whose visibility depends on the requesting learner.
	Tool interface {
		AnalyticsID() string
		Title() string
		IconClasses() string
		URL(courseID string) string
		IsEnabled(ctx context.Context, req Request, courseID string) (bool, error)
	}

	CourseFinder interface {
		Get(ctx context.Context, id string) (course.Course, error)
		GetMode(ctx context.Context, courseID, slug string) (course.Mode, error)
	}

	EnrollmentFinder interface {
		Get(ctx context.Context, userID, courseID string) (enrollment.Enrollment, error)
	}

	// DeadlineConfig reports whether dynamic upgrade deadlines are enabled for a course.
	DeadlineConfig interface {
		IsEnabled(ctx context.Context, courseID string) (bool, error)
	}

	// Deps are the lookups tools are evaluated against.
	Deps struct {
		Courses     CourseFinder
		Enrollments EnrollmentFinder
		Deadlines   DeadlineConfig
	}
)

// NewRequest returns a Request made by usr at the current time.
func NewRequest(usr *user.User) Request {
	return Request{User: usr, Now: NowFunc().UTC()}
}

func (r Request) IsAuthenticated() bool {
	return r.User != nil && r.User.ID != "" && r.User.IsActive
}

// lookup holds what tools know about the requesting learner's enrollment.
type lookup struct {
	course     course.Course
	enrollment *enrollment.Enrollment // nil if the learner is not enrolled
}

// load fetches the course and the learner's enrollment in it.
// Missing records are not errors; a malformed course id is.
func (d Deps) load(ctx context.Context, req Request, courseID string) (*lookup, error) {
	if _, err := course.ParseKey(courseID); err != nil {
		return nil, err
	}

	crs, err := d.Courses.Get(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting course")
	}

	lk := &lookup{course: crs}
	if !req.IsAuthenticated() {
		return lk, nil
	}
	enr, err := d.Enrollments.Get(ctx, req.User.ID, courseID)
	switch errors.Cause(err) {
	case nil:
		lk.enrollment = &enr
	case enrollment.ErrNotFound: // pass
	default:
		return nil, errors.Wrap(err, "getting enrollment")
	}
	return lk, nil
}

// canUpgrade reports whether the learner is actively enrolled on a track that can still be upgraded.
func (lk *lookup) canUpgrade() bool {
	return lk != nil && lk.enrollment != nil && lk.enrollment.IsActive && course.IsUpsellMode(lk.enrollment.Mode)
}

// upgradeDeadline returns the current expiration of the course's verified mode, nil if there is none.
func (d Deps) upgradeDeadline(ctx context.Context, courseID string) (*time.Time, error) {
	mode, err := d.Courses.GetMode(ctx, courseID, course.ModeUpgradeTarget)
	if err != nil {
		if errors.Cause(err) == course.ErrModeNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting verified mode")
	}
	return mode.ExpirationDatetime, nil
}

func isFuture(t *time.Time, now time.Time) bool {
	return t != nil && t.After(now)
}
