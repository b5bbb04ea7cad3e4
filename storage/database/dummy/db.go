package dummydb

import (
	"sync"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		enrollment *enrollmentTable
		upgrade    *upgradeTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
		modes map[string]map[string]*course.Mode // {courseID: {slug: mode}}
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment
	}

	upgradeTable struct {
		sync.RWMutex
		configs       []upgrade.Config                  // history, latest last
		courseConfigs map[string][]upgrade.CourseConfig // {courseID: history}
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table: make(map[string]*course.Course),
			modes: make(map[string]map[string]*course.Mode),
		},
		enrollment: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		upgrade:    &upgradeTable{courseConfigs: make(map[string][]upgrade.CourseConfig)},
	}
	return db, nil
}
