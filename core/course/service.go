package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
)

var (
	// errors
	ErrNotFound     = errors.New("course not found")
	ErrModeNotFound = errors.New("course mode not found")
	ErrInvalidKey   = errors.New("invalid course key")
	ErrCourseExists = errors.New("a course with this key already exists")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)

		// SaveCourseMode creates the mode or replaces the existing mode with the same course & slug.
		SaveCourseMode(ctx context.Context, mode Mode) (Mode, error)
		GetCourseMode(ctx context.Context, courseID, slug string) (Mode, error)
		QueryCourseModes(ctx context.Context, courseID string) ([]Mode, error)
		DeleteCourseMode(ctx context.Context, courseID, slug string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	key, err := ParseKey(nc.ID)
	if err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	crs := Course{
		ID:          key.String(),
		Org:         key.Org,
		Number:      key.Number,
		Run:         key.Run,
		DisplayName: nc.DisplayName,
		SelfPaced:   nc.SelfPaced,
		Start:       nc.Start.UTC(),
		End:         utcPtr(nc.End),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nc.EligibleForFinancialAid != nil {
		crs.EligibleForFinancialAid = *nc.EligibleForFinancialAid
	} else {
		crs.EligibleForFinancialAid = true
	}

	crs, err = svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		if errors.Cause(err) == ErrCourseExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "id", Error: ErrCourseExists.Error()})
		}
		return Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

// Get returns the Course identified by id. Malformed ids yield ErrInvalidKey.
func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	if _, err := ParseKey(id); err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if name := core.CleanString(uc.DisplayName); name != "" {
		crs.DisplayName = name
	}
	if uc.SelfPaced != nil {
		crs.SelfPaced = *uc.SelfPaced
	}
	if uc.Start != nil {
		crs.Start = uc.Start.UTC()
	}
	if uc.ClearEnd {
		crs.End = nil
	} else if uc.End != nil {
		crs.End = utcPtr(uc.End)
	}
	if uc.EligibleForFinancialAid != nil {
		crs.EligibleForFinancialAid = *uc.EligibleForFinancialAid
	}
	if crs.End != nil && !crs.End.After(crs.Start) {
		return Course{}, core.NewValidationError(nil, core.FieldError{Field: "end", Error: "end must be after start"})
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// SetMode adds the mode to the course, replacing any existing mode with the same slug.
func (svc *Service) SetMode(ctx context.Context, courseID string, nm NewMode) (Mode, error) {
	if _, err := svc.Get(ctx, courseID); err != nil {
		return Mode{}, err
	}
	name := core.CleanString(nm.Name)
	if name == "" {
		name = nm.Slug
	}
	currency := nm.Currency
	if currency == "" {
		currency = "usd"
	}
	return svc.repo.SaveCourseMode(ctx, Mode{
		CourseID:           courseID,
		Slug:               nm.Slug,
		Name:               name,
		MinPrice:           nm.MinPrice,
		Currency:           currency,
		ExpirationDatetime: utcPtr(nm.ExpirationDatetime),
	})
}

func (svc *Service) GetMode(ctx context.Context, courseID, slug string) (Mode, error) {
	if _, err := ParseKey(courseID); err != nil {
		return Mode{}, err
	}
	return svc.repo.GetCourseMode(ctx, courseID, slug)
}

// VerifiedMode returns the course's upgrade target mode, nil if the course has none.
func (svc *Service) VerifiedMode(ctx context.Context, courseID string) (*Mode, error) {
	mode, err := svc.GetMode(ctx, courseID, ModeUpgradeTarget)
	if err != nil {
		if errors.Cause(err) == ErrModeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &mode, nil
}

func (svc *Service) Modes(ctx context.Context, courseID string) ([]Mode, error) {
	if _, err := ParseKey(courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryCourseModes(ctx, courseID)
}

func (svc *Service) DeleteMode(ctx context.Context, courseID, slug string) error {
	if _, err := ParseKey(courseID); err != nil {
		return err
	}
	return svc.repo.DeleteCourseMode(ctx, courseID, slug)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return core.TimePtr(*t)
}
