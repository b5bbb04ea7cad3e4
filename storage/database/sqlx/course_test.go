package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/course"
)

const courseID = "course-v1:edX+DemoX+Demo_Course"

var (
	courseRowColumns = []string{
		"id", "org", "number", "run", "display_name", "self_paced", "start", "end", "eligible_for_financial_aid", "created_at", "updated_at",
	}
	modeRowColumns = []string{"id", "course_id", "slug", "name", "min_price", "currency", "expiration_datetime"}
)

func TestCourseRepository_GetCourse(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)

	tests := []struct {
		name    string
		end     interface{}
		wantEnd *time.Time
		empty   bool
		wantErr error
	}{
		{name: "with end", end: end, wantEnd: &end},
		{name: "without end", end: nil},
		{name: "not found", empty: true, wantErr: course.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			rows := sqlmock.NewRows(courseRowColumns)
			if !tt.empty {
				rows.AddRow(courseID, "edX", "DemoX", "Demo_Course", "Demo", true, start, tt.end, true, start, start)
			}
			mock.ExpectQuery(`SELECT .+ FROM course WHERE id = \$1`).WithArgs(courseID).WillReturnRows(rows)

			got, err := NewCourseRepository(db).GetCourse(context.Background(), courseID)
			if err != tt.wantErr {
				t.Fatalf("GetCourse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.ID != courseID || !got.SelfPaced || !got.EligibleForFinancialAid || !got.Start.Equal(start) {
				t.Errorf("GetCourse() = %+v", got)
			}
			if (got.End == nil) != (tt.wantEnd == nil) || (got.End != nil && !got.End.Equal(*tt.wantEnd)) {
				t.Errorf("GetCourse() End = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func TestCourseRepository_CreateCourse(t *testing.T) {
	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "created"},
		{name: "duplicate", execErr: &pq.Error{Code: uniqueViolation}, wantErr: course.ErrCourseExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			exp := mock.ExpectExec(`INSERT INTO course \(`)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			_, err := NewCourseRepository(db).CreateCourse(context.Background(), course.Course{ID: courseID})
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("CreateCourse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCourseRepository_SaveCourseMode(t *testing.T) {
	db, mock := newMockDB(t)
	exp := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO course_mode .+ ON CONFLICT \(course_id, slug\) DO UPDATE .+ RETURNING`).
		WithArgs(sqlmock.AnyArg(), courseID, course.ModeVerified, "Verified", 49, "usd", exp).
		WillReturnRows(sqlmock.NewRows(modeRowColumns).AddRow("mode-id", courseID, course.ModeVerified, "Verified", 49, "usd", exp))

	got, err := NewCourseRepository(db).SaveCourseMode(context.Background(), course.Mode{
		CourseID: courseID, Slug: course.ModeVerified, Name: "Verified", MinPrice: 49, Currency: "usd", ExpirationDatetime: &exp,
	})
	if err != nil {
		t.Fatalf("SaveCourseMode() error = %v", err)
	}
	if got.ID != "mode-id" || got.ExpirationDatetime == nil || !got.ExpirationDatetime.Equal(exp) {
		t.Errorf("SaveCourseMode() = %+v", got)
	}
}

func TestCourseRepository_GetCourseMode(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .+ FROM course_mode WHERE course_id = \$1 AND slug = \$2`).
		WithArgs(courseID, course.ModeVerified).
		WillReturnRows(sqlmock.NewRows(modeRowColumns))

	if _, err := NewCourseRepository(db).GetCourseMode(context.Background(), courseID, course.ModeVerified); err != course.ErrModeNotFound {
		t.Errorf("GetCourseMode() error = %v, wantErr %v", err, course.ErrModeNotFound)
	}
}

func TestCourseRepository_QueryCourseModes(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .+ FROM course_mode WHERE course_id = \$1 ORDER BY slug`).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows(modeRowColumns).
			AddRow("1", courseID, course.ModeAudit, "Audit", 0, "usd", nil).
			AddRow("2", courseID, course.ModeVerified, "Verified", 49, "usd", nil))

	modes, err := NewCourseRepository(db).QueryCourseModes(context.Background(), courseID)
	if err != nil {
		t.Fatalf("QueryCourseModes() error = %v", err)
	}
	if len(modes) != 2 || modes[0].Slug != course.ModeAudit || modes[1].Slug != course.ModeVerified {
		t.Errorf("QueryCourseModes() = %+v", modes)
	}
}

func TestCourseRepository_DeleteCourseMode(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: course.ErrModeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(`DELETE FROM course_mode WHERE course_id = \$1 AND slug = \$2`).
				WithArgs(courseID, course.ModeHonor).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			if err := NewCourseRepository(db).DeleteCourseMode(context.Background(), courseID, course.ModeHonor); err != tt.wantErr {
				t.Errorf("DeleteCourseMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
