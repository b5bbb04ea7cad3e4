package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursetools/core/course"
)

const (
	courseColumns = `id, org, number, run, display_name, self_paced, start, "end", eligible_for_financial_aid, created_at, updated_at`
	modeColumns   = `id, course_id, slug, name, min_price, currency, expiration_datetime`
)

type courseRow struct {
	ID                      string    `db:"id"`
	Org                     string    `db:"org"`
	Number                  string    `db:"number"`
	Run                     string    `db:"run"`
	DisplayName             string    `db:"display_name"`
	SelfPaced               bool      `db:"self_paced"`
	Start                   time.Time `db:"start"`
	End                     null.Time `db:"end"`
	EligibleForFinancialAid bool      `db:"eligible_for_financial_aid"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

func newCourseRow(crs course.Course) courseRow {
	return courseRow{
		ID:                      crs.ID,
		Org:                     crs.Org,
		Number:                  crs.Number,
		Run:                     crs.Run,
		DisplayName:             crs.DisplayName,
		SelfPaced:               crs.SelfPaced,
		Start:                   crs.Start.UTC(),
		End:                     null.TimeFromPtr(crs.End),
		EligibleForFinancialAid: crs.EligibleForFinancialAid,
		CreatedAt:               crs.CreatedAt.UTC(),
		UpdatedAt:               crs.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:                      r.ID,
		Org:                     r.Org,
		Number:                  r.Number,
		Run:                     r.Run,
		DisplayName:             r.DisplayName,
		SelfPaced:               r.SelfPaced,
		Start:                   r.Start.UTC(),
		End:                     utcPtr(r.End),
		EligibleForFinancialAid: r.EligibleForFinancialAid,
		CreatedAt:               r.CreatedAt.UTC(),
		UpdatedAt:               r.UpdatedAt.UTC(),
	}
}

type modeRow struct {
	ID                 string    `db:"id"`
	CourseID           string    `db:"course_id"`
	Slug               string    `db:"slug"`
	Name               string    `db:"name"`
	MinPrice           int       `db:"min_price"`
	Currency           string    `db:"currency"`
	ExpirationDatetime null.Time `db:"expiration_datetime"`
}

func (r modeRow) mode() course.Mode {
	return course.Mode{
		ID:                 r.ID,
		CourseID:           r.CourseID,
		Slug:               r.Slug,
		Name:               r.Name,
		MinPrice:           r.MinPrice,
		Currency:           r.Currency,
		ExpirationDatetime: utcPtr(r.ExpirationDatetime),
	}
}

type courseRepository struct {
	exec Executor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec Executor) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if _, err := sqlx.NamedExecContext(ctx, repo.exec,
		`INSERT INTO course (`+courseColumns+`) VALUES (:id, :org, :number, :run, :display_name, :self_paced, :start, :end,
		:eligible_for_financial_aid, :created_at, :updated_at)`,
		newCourseRow(crs),
	); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCourseExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.course(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.exec,
		`UPDATE course SET display_name = :display_name, self_paced = :self_paced, start = :start, "end" = :end,
		eligible_for_financial_aid = :eligible_for_financial_aid, updated_at = :updated_at WHERE id = :id`,
		newCourseRow(crs),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) SaveCourseMode(ctx context.Context, mode course.Mode) (course.Mode, error) {
	var row modeRow
	err := sqlx.GetContext(ctx, repo.exec, &row,
		`INSERT INTO course_mode (`+modeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (course_id, slug) DO UPDATE SET name = EXCLUDED.name, min_price = EXCLUDED.min_price,
		currency = EXCLUDED.currency, expiration_datetime = EXCLUDED.expiration_datetime
		RETURNING `+modeColumns,
		uuid.New().String(), mode.CourseID, mode.Slug, mode.Name, mode.MinPrice, mode.Currency,
		null.TimeFromPtr(mode.ExpirationDatetime),
	)
	if err != nil {
		return course.Mode{}, errors.Wrap(err, "saving course mode")
	}
	return row.mode(), nil
}

func (repo courseRepository) GetCourseMode(ctx context.Context, courseID, slug string) (course.Mode, error) {
	var row modeRow
	if err := sqlx.GetContext(ctx, repo.exec, &row,
		`SELECT `+modeColumns+` FROM course_mode WHERE course_id = $1 AND slug = $2`, courseID, slug,
	); err != nil {
		if err == sql.ErrNoRows {
			return course.Mode{}, course.ErrModeNotFound
		}
		return course.Mode{}, errors.Wrap(err, "getting course mode")
	}
	return row.mode(), nil
}

func (repo courseRepository) QueryCourseModes(ctx context.Context, courseID string) ([]course.Mode, error) {
	var rows []modeRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows,
		`SELECT `+modeColumns+` FROM course_mode WHERE course_id = $1 ORDER BY slug`, courseID,
	); err != nil {
		return nil, errors.Wrap(err, "querying course modes")
	}
	modes := make([]course.Mode, 0, len(rows))
	for _, r := range rows {
		modes = append(modes, r.mode())
	}
	return modes, nil
}

func (repo courseRepository) DeleteCourseMode(ctx context.Context, courseID, slug string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM course_mode WHERE course_id = $1 AND slug = $2`, courseID, slug)
	if err != nil {
		return errors.Wrap(err, "deleting course mode")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrModeNotFound
	}
	return nil
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
