package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
	"github.com/trezcool/coursetools/storage/database/dummy"
)

// Services are domain services backed by a fresh in-memory database.
type Services struct {
	UserRepo       user.Repository
	Users          *user.Service
	Courses        *course.Service
	Deadlines      *upgrade.Service
	EnrollmentRepo enrollment.Repository
	Enrollments    *enrollment.Service
}

func NewServices(t *testing.T) *Services {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	crsSvc := course.NewService(dummydb.NewCourseRepository(db))
	upgSvc := upgrade.NewService(dummydb.NewUpgradeConfigRepository(db), upgrade.DefaultDeadlineDays)
	enrRepo := dummydb.NewEnrollmentRepository(db)
	return &Services{
		UserRepo:       usrRepo,
		Users:          user.NewService(usrRepo),
		Courses:        crsSvc,
		Deadlines:      upgSvc,
		EnrollmentRepo: enrRepo,
		Enrollments:    enrollment.NewService(enrRepo, crsSvc, upgSvc),
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, svc *course.Service, id string, selfPaced bool, start time.Time, end *time.Time) course.Course {
	crs, err := svc.Create(context.Background(), course.NewCourse{
		ID:          id,
		DisplayName: "Test Course",
		SelfPaced:   selfPaced,
		Start:       start,
		End:         end,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func SetMode(t *testing.T, svc *course.Service, courseID, slug string, expiration *time.Time) course.Mode {
	mode, err := svc.SetMode(context.Background(), courseID, course.NewMode{Slug: slug, ExpirationDatetime: expiration})
	if err != nil {
		t.Fatalf("setMode() failed: %v", err)
	}
	return mode
}

func SetDynamicDeadline(t *testing.T, svc *upgrade.Service, enabled bool) {
	if _, err := svc.SaveConfig(context.Background(), upgrade.UpdateConfig{Enabled: enabled}, "test"); err != nil {
		t.Fatalf("setDynamicDeadline() failed: %v", err)
	}
}

func SetCourseOptOut(t *testing.T, svc *upgrade.Service, courseID string) {
	uc := upgrade.UpdateCourseConfig{Enabled: true, OptOut: true}
	if _, err := svc.SaveCourseConfig(context.Background(), courseID, uc, "test"); err != nil {
		t.Fatalf("setCourseOptOut() failed: %v", err)
	}
}

func Enroll(t *testing.T, svc *enrollment.Service, userID, courseID, mode string) enrollment.Enrollment {
	enr, err := svc.Enroll(context.Background(), userID, courseID, mode)
	if err != nil {
		t.Fatalf("enroll() failed: %v", err)
	}
	return enr
}

func TimeRef(t time.Time) *time.Time {
	return &t
}
