package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	dummydb "github.com/trezcool/coursetools/storage/database/dummy"
)

const courseID = "course-v1:edX+DemoX+2024"

func newService(t *testing.T) *course.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return course.NewService(dummydb.NewCourseRepository(db))
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.FixedZone("WAT", 3600))
	noAid := false

	crs, err := svc.Create(ctx, course.NewCourse{ID: courseID, DisplayName: "Demo", Start: start})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if crs.Org != "edX" || crs.Number != "DemoX" || crs.Run != "2024" {
		t.Errorf("Create() key parts = %s %s %s", crs.Org, crs.Number, crs.Run)
	}
	if !crs.EligibleForFinancialAid {
		t.Error("Create() course is not eligible for financial aid by default")
	}
	if crs.Start.Location() != time.UTC || !crs.Start.Equal(start) {
		t.Errorf("Create() Start = %v, want %v in UTC", crs.Start, start)
	}

	_, err = svc.Create(ctx, course.NewCourse{ID: courseID, DisplayName: "Demo", Start: start, EligibleForFinancialAid: &noAid})
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok || vErr.FieldMap()["id"] != course.ErrCourseExists.Error() {
		t.Errorf("Create() duplicate error = %v, want ErrCourseExists on id", err)
	}

	if _, err = svc.Create(ctx, course.NewCourse{ID: "DemoX", Start: start}); errors.Cause(err) != course.ErrInvalidKey {
		t.Errorf("Create() error = %v, want ErrInvalidKey", err)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	if _, err := svc.Create(ctx, course.NewCourse{ID: courseID, DisplayName: "Demo", Start: start, End: &end}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	selfPaced, noAid := true, false
	beforeStart := start.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		id      string
		uc      course.UpdateCourse
		wantErr func(error) bool
		check   func(course.Course) bool
	}{
		{
			name:    "unknown course",
			id:      "course-v1:edX+Nope+2024",
			wantErr: func(err error) bool { return errors.Cause(err) == course.ErrNotFound },
		},
		{
			name: "end before start",
			id:   courseID,
			uc:   course.UpdateCourse{End: &beforeStart},
			wantErr: func(err error) bool {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				return ok && vErr.FieldMap()["end"] != ""
			},
		},
		{
			name: "partial update",
			id:   courseID,
			uc:   course.UpdateCourse{DisplayName: " Demo 2 ", SelfPaced: &selfPaced, EligibleForFinancialAid: &noAid},
			check: func(crs course.Course) bool {
				return crs.DisplayName == "Demo 2" && crs.SelfPaced && !crs.EligibleForFinancialAid && crs.End != nil
			},
		},
		{
			name:  "clear end",
			id:    courseID,
			uc:    course.UpdateCourse{ClearEnd: true},
			check: func(crs course.Course) bool { return crs.End == nil && crs.DisplayName == "Demo 2" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Update(ctx, tt.id, tt.uc)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("Update() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !tt.check(got) {
				t.Errorf("Update() = %+v", got)
			}
		})
	}
}

func TestService_modes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	if _, err := svc.Create(ctx, course.NewCourse{ID: courseID, DisplayName: "Demo", Start: time.Now()}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	verified, err := svc.VerifiedMode(ctx, courseID)
	if err != nil || verified != nil {
		t.Fatalf("VerifiedMode() = %v, %v; want nil, nil", verified, err)
	}

	expiration := time.Now().Add(24 * time.Hour)
	if _, err = svc.SetMode(ctx, courseID, course.NewMode{Slug: course.ModeVerified, MinPrice: 49}); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	mode, err := svc.SetMode(ctx, courseID, course.NewMode{Slug: course.ModeVerified, MinPrice: 99, ExpirationDatetime: &expiration})
	if err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if mode.Name != course.ModeVerified || mode.Currency != "usd" {
		t.Errorf("SetMode() = %+v, want default name & currency", mode)
	}
	if _, err = svc.SetMode(ctx, courseID, course.NewMode{Slug: course.ModeAudit}); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	verified, err = svc.VerifiedMode(ctx, courseID)
	if err != nil || verified == nil {
		t.Fatalf("VerifiedMode() = %v, %v", verified, err)
	}
	if verified.MinPrice != 99 || verified.ExpirationDatetime == nil || !verified.ExpirationDatetime.Equal(expiration) {
		t.Errorf("VerifiedMode() = %+v, want the replaced mode", verified)
	}

	modes, err := svc.Modes(ctx, courseID)
	if err != nil {
		t.Fatalf("Modes() error = %v", err)
	}
	if len(modes) != 2 {
		t.Errorf("len(Modes()) = %d, want 2", len(modes))
	}

	if err = svc.DeleteMode(ctx, courseID, course.ModeVerified); err != nil {
		t.Fatalf("DeleteMode() error = %v", err)
	}
	if err = svc.DeleteMode(ctx, courseID, course.ModeVerified); errors.Cause(err) != course.ErrModeNotFound {
		t.Errorf("DeleteMode() error = %v, want ErrModeNotFound", err)
	}
	if _, err = svc.SetMode(ctx, "course-v1:edX+Nope+2024", course.NewMode{Slug: course.ModeVerified}); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("SetMode() error = %v, want ErrNotFound", err)
	}
	if _, err = svc.Modes(ctx, "nope"); errors.Cause(err) != course.ErrInvalidKey {
		t.Errorf("Modes() error = %v, want ErrInvalidKey", err)
	}
}
