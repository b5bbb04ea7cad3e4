package upgrade

import "time"

// DefaultDeadlineDays is the number of days a learner has to upgrade when no configuration sets it.
const DefaultDeadlineDays = 21

// Config is the global dynamic upgrade deadline configuration. The latest saved Config is the current one.
type Config struct {
	ID           string    `json:"id"`
	Enabled      bool      `json:"enabled"`
	DeadlineDays int       `json:"deadline_days"`
	ChangedBy    string    `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"` // UTC
}

// CourseConfig overrides the global Config for a single course.
// An enabled CourseConfig with OptOut set disables dynamic deadlines for the course.
type CourseConfig struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	Enabled      bool      `json:"enabled"`
	OptOut       bool      `json:"opt_out"`
	DeadlineDays int       `json:"deadline_days"`
	ChangedBy    string    `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"` // UTC
}

// UpdateConfig defines what information may be provided to change the global Config.
type UpdateConfig struct {
	Enabled      bool `json:"enabled"`
	DeadlineDays int  `json:"deadline_days" validate:"gte=0,lte=365"`
}

// UpdateCourseConfig defines what information may be provided to change a CourseConfig.
type UpdateCourseConfig struct {
	Enabled      bool `json:"enabled"`
	OptOut       bool `json:"opt_out"`
	DeadlineDays int  `json:"deadline_days" validate:"gte=0,lte=365"`
}
