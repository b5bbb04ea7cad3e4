package enrollment

import (
	"strings"
	"time"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
)

type Enrollment struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Mode     string `json:"mode"`
	IsActive bool   `json:"is_active"`

	// ScheduleStart is when course content became available to the learner.
	ScheduleStart time.Time `json:"schedule_start"` // UTC
	// UpgradeDeadline is the learner's own (dynamic) upgrade deadline, computed on enrollment.
	UpgradeDeadline *time.Time `json:"upgrade_deadline,omitempty"` // UTC

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewEnrollment contains information needed to enroll a learner.
type NewEnrollment struct {
	Mode string `json:"mode" validate:"omitempty,modeslug"`
}

func (ne *NewEnrollment) Validate() error {
	ne.Mode = strings.ToLower(strings.TrimSpace(ne.Mode))
	return core.Validate.Struct(ne)
}

// OrderingFields are the fields enrollments can be ordered by.
var OrderingFields = []string{"created_at", "updated_at", "mode", "user_id"}

type QueryFilter struct {
	CourseID string
	UserID   string
	IsActive *bool
	Modes    []string
	Ordering []core.DBOrdering // defaults to created_at ascending
}

// DynamicDeadline returns the learner's own upgrade deadline when dynamic deadlines apply to crs, nil otherwise.
// Dynamic deadlines only apply to self-paced courses.
func DynamicDeadline(enr Enrollment, crs course.Course, enabled bool) *time.Time {
	if !enabled || !crs.SelfPaced {
		return nil
	}
	return enr.UpgradeDeadline
}
