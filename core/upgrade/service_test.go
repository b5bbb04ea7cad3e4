package upgrade_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/upgrade"
	dummydb "github.com/trezcool/coursetools/storage/database/dummy"
)

const courseID = "course-v1:edX+DemoX+2024"

func newService(t *testing.T) *upgrade.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return upgrade.NewService(dummydb.NewUpgradeConfigRepository(db), upgrade.DefaultDeadlineDays)
}

func TestService_CurrentConfig(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	cfg, err := svc.CurrentConfig(ctx)
	if err != nil {
		t.Fatalf("CurrentConfig() error = %v", err)
	}
	if cfg.Enabled {
		t.Error("CurrentConfig() enabled before any config is saved")
	}

	if _, err = svc.Enable(ctx, 10, "staff"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if _, err = svc.Disable(ctx, "admin"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	cfg, err = svc.CurrentConfig(ctx)
	if err != nil {
		t.Fatalf("CurrentConfig() error = %v", err)
	}
	if cfg.Enabled || cfg.DeadlineDays != 10 || cfg.ChangedBy != "admin" {
		t.Errorf("CurrentConfig() = %+v, want the latest saved config keeping the deadline days", cfg)
	}
}

func TestService_IsEnabled(t *testing.T) {
	tests := []struct {
		name      string
		global    *upgrade.UpdateConfig
		courseCfg *upgrade.UpdateCourseConfig
		want      bool
	}{
		{name: "never configured", want: false},
		{name: "globally disabled", global: &upgrade.UpdateConfig{Enabled: false}, want: false},
		{name: "globally enabled", global: &upgrade.UpdateConfig{Enabled: true}, want: true},
		{
			name:      "course opted out",
			global:    &upgrade.UpdateConfig{Enabled: true},
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: true, OptOut: true},
			want:      false,
		},
		{
			name:      "disabled course opt out is ignored",
			global:    &upgrade.UpdateConfig{Enabled: true},
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: false, OptOut: true},
			want:      true,
		},
		{
			name:      "course config cannot enable a disabled global config",
			global:    &upgrade.UpdateConfig{Enabled: false},
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: true},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(t)
			if tt.global != nil {
				if _, err := svc.SaveConfig(ctx, *tt.global, "test"); err != nil {
					t.Fatalf("SaveConfig() error = %v", err)
				}
			}
			if tt.courseCfg != nil {
				if _, err := svc.SaveCourseConfig(ctx, courseID, *tt.courseCfg, "test"); err != nil {
					t.Fatalf("SaveCourseConfig() error = %v", err)
				}
			}

			got, err := svc.IsEnabled(ctx, courseID)
			if err != nil {
				t.Fatalf("IsEnabled() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_DeadlineDays(t *testing.T) {
	tests := []struct {
		name      string
		global    *upgrade.UpdateConfig
		courseCfg *upgrade.UpdateCourseConfig
		want      int
	}{
		{name: "default", want: upgrade.DefaultDeadlineDays},
		{name: "global days", global: &upgrade.UpdateConfig{Enabled: true, DeadlineDays: 14}, want: 14},
		{
			name:      "course override",
			global:    &upgrade.UpdateConfig{Enabled: true, DeadlineDays: 14},
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: true, DeadlineDays: 7},
			want:      7,
		},
		{
			name:      "disabled course override",
			global:    &upgrade.UpdateConfig{Enabled: true, DeadlineDays: 14},
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: false, DeadlineDays: 7},
			want:      14,
		},
		{
			name:      "course without days",
			courseCfg: &upgrade.UpdateCourseConfig{Enabled: true},
			want:      upgrade.DefaultDeadlineDays,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(t)
			if tt.global != nil {
				if _, err := svc.SaveConfig(ctx, *tt.global, "test"); err != nil {
					t.Fatalf("SaveConfig() error = %v", err)
				}
			}
			if tt.courseCfg != nil {
				if _, err := svc.SaveCourseConfig(ctx, courseID, *tt.courseCfg, "test"); err != nil {
					t.Fatalf("SaveCourseConfig() error = %v", err)
				}
			}

			got, err := svc.DeadlineDays(ctx, courseID)
			if err != nil {
				t.Fatalf("DeadlineDays() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DeadlineDays() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_ScheduleDeadline(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	if _, err := svc.Enable(ctx, 10, "test"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	crs := course.Course{ID: courseID, SelfPaced: true, Start: start}
	ref := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name       string
		mode       *course.Mode
		enrolledAt time.Time
		want       time.Time
	}{
		{name: "enrolled after start", enrolledAt: start.AddDate(0, 0, 5), want: start.AddDate(0, 0, 15)},
		{name: "enrolled before start", enrolledAt: start.AddDate(0, 0, -5), want: start.AddDate(0, 0, 10)},
		{
			name:       "verified mode expiring later",
			mode:       &course.Mode{Slug: course.ModeVerified, ExpirationDatetime: ref(start.AddDate(0, 1, 0))},
			enrolledAt: start,
			want:       start.AddDate(0, 0, 10),
		},
		{
			name:       "capped by verified mode expiration",
			mode:       &course.Mode{Slug: course.ModeVerified, ExpirationDatetime: ref(start.AddDate(0, 0, 3))},
			enrolledAt: start,
			want:       start.AddDate(0, 0, 3),
		},
		{
			name:       "verified mode without expiration",
			mode:       &course.Mode{Slug: course.ModeVerified},
			enrolledAt: start,
			want:       start.AddDate(0, 0, 10),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ScheduleDeadline(ctx, crs, tt.mode, tt.enrolledAt)
			if err != nil {
				t.Fatalf("ScheduleDeadline() error = %v", err)
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("ScheduleDeadline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_SaveCourseConfig(t *testing.T) {
	tests := []struct {
		name     string
		courseID string
		uc       upgrade.UpdateCourseConfig
		wantErr  func(error) bool
	}{
		{
			name:     "malformed course id",
			courseID: "DemoX",
			wantErr:  func(err error) bool { return errors.Cause(err) == course.ErrInvalidKey },
		},
		{
			name:     "too many days",
			courseID: courseID,
			uc:       upgrade.UpdateCourseConfig{Enabled: true, DeadlineDays: 400},
			wantErr: func(err error) bool {
				_, ok := errors.Cause(err).(validator.ValidationErrors)
				return ok
			},
		},
		{name: "saved", courseID: courseID, uc: upgrade.UpdateCourseConfig{Enabled: true, OptOut: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t)
			got, err := svc.SaveCourseConfig(context.Background(), tt.courseID, tt.uc, "staff")
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("SaveCourseConfig() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveCourseConfig() error = %v", err)
			}
			if got.ID == "" || got.CourseID != tt.courseID || !got.OptOut || got.ChangedBy != "staff" {
				t.Errorf("SaveCourseConfig() = %+v", got)
			}
		})
	}
}
