package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/enrollment"
)

const enrollmentColumns = `id, user_id, course_id, mode, is_active, schedule_start, upgrade_deadline, created_at, updated_at`

type enrollmentRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	CourseID        string    `db:"course_id"`
	Mode            string    `db:"mode"`
	IsActive        bool      `db:"is_active"`
	ScheduleStart   time.Time `db:"schedule_start"`
	UpgradeDeadline null.Time `db:"upgrade_deadline"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func newEnrollmentRow(enr enrollment.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:              enr.ID,
		UserID:          enr.UserID,
		CourseID:        enr.CourseID,
		Mode:            enr.Mode,
		IsActive:        enr.IsActive,
		ScheduleStart:   enr.ScheduleStart.UTC(),
		UpgradeDeadline: null.TimeFromPtr(enr.UpgradeDeadline),
		CreatedAt:       enr.CreatedAt.UTC(),
		UpdatedAt:       enr.UpdatedAt.UTC(),
	}
}

func (r enrollmentRow) enrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:              r.ID,
		UserID:          r.UserID,
		CourseID:        r.CourseID,
		Mode:            r.Mode,
		IsActive:        r.IsActive,
		ScheduleStart:   r.ScheduleStart.UTC(),
		UpgradeDeadline: utcPtr(r.UpgradeDeadline),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type enrollmentRepository struct {
	exec Executor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec Executor) enrollment.Repository {
	return &enrollmentRepository{exec: exec}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	enr.ID = uuid.New().String()
	if _, err := sqlx.NamedExecContext(ctx, repo.exec,
		`INSERT INTO enrollment (`+enrollmentColumns+`) VALUES (:id, :user_id, :course_id, :mode, :is_active, :schedule_start,
		:upgrade_deadline, :created_at, :updated_at)`,
		newEnrollmentRow(enr),
	); err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrExists
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	var row enrollmentRow
	if err := sqlx.GetContext(ctx, repo.exec, &row,
		`SELECT `+enrollmentColumns+` FROM enrollment WHERE user_id = $1 AND course_id = $2`, userID, courseID,
	); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.enrollment(), nil
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	var (
		conds []string
		args  []interface{}
	)
	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if filter.CourseID != "" {
		addCond("course_id = ?", filter.CourseID)
	}
	if filter.UserID != "" {
		addCond("user_id = ?", filter.UserID)
	}
	if filter.IsActive != nil {
		addCond("is_active = ?", *filter.IsActive)
	}
	if len(filter.Modes) > 0 {
		addCond("mode = ANY(?)", pq.Array(filter.Modes))
	}

	query := `SELECT ` + enrollmentColumns + ` FROM enrollment`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + orderBy(filter.Ordering)

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.exec,
		`UPDATE enrollment SET mode = :mode, is_active = :is_active, schedule_start = :schedule_start,
		upgrade_deadline = :upgrade_deadline, updated_at = :updated_at WHERE id = :id`,
		newEnrollmentRow(enr),
	)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enr, nil
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return "created_at ASC"
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if core.StringInSlice(ord.Field, enrollment.OrderingFields) {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return "created_at ASC"
	}
	return strings.Join(clauses, ", ")
}
