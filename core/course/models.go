package course

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
)

// Mode slugs
const (
	ModeAudit            = "audit"
	ModeHonor            = "honor"
	ModeVerified         = "verified"
	ModeProfessional     = "professional"
	ModeNoIDProfessional = "no-id-professional"
	ModeCredit           = "credit"
	ModeMasters          = "masters"

	// ModeUpgradeTarget is the track learners are invited to upgrade to.
	ModeUpgradeTarget = ModeVerified
)

var (
	AllModes = []string{
		ModeAudit, ModeHonor, ModeVerified, ModeProfessional, ModeNoIDProfessional, ModeCredit, ModeMasters,
	}

	// UpsellToVerifiedModes are the tracks whose learners can be upsold to ModeUpgradeTarget.
	UpsellToVerifiedModes = []string{ModeHonor, ModeAudit}

	keyPrefix = "course-v1:"
)

// IsUpsellMode reports whether a learner in mode can still upgrade to the verified track.
func IsUpsellMode(mode string) bool { return core.StringInSlice(mode, UpsellToVerifiedModes) }

func IsKnownMode(mode string) bool { return core.StringInSlice(mode, AllModes) }

// Key identifies a course run, eg. course-v1:edX+DemoX+2024.
type Key struct {
	Org    string
	Number string
	Run    string
}

func (k Key) String() string {
	return keyPrefix + k.Org + "+" + k.Number + "+" + k.Run
}

// ParseKey parses a course key in the form course-v1:ORG+NUMBER+RUN.
func ParseKey(s string) (Key, error) {
	if !strings.HasPrefix(s, keyPrefix) {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	parts := strings.Split(strings.TrimPrefix(s, keyPrefix), "+")
	if len(parts) != 3 {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	for _, p := range parts {
		if p == "" || !keyPartRegex.MatchString(p) {
			return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
		}
	}
	return Key{Org: parts[0], Number: parts[1], Run: parts[2]}, nil
}

type Course struct {
	ID                      string     `json:"id"`
	Org                     string     `json:"org"`
	Number                  string     `json:"number"`
	Run                     string     `json:"run"`
	DisplayName             string     `json:"display_name"`
	SelfPaced               bool       `json:"self_paced"`
	Start                   time.Time  `json:"start"`         // UTC
	End                     *time.Time `json:"end,omitempty"` // UTC
	EligibleForFinancialAid bool       `json:"eligible_for_financial_aid"`
	CreatedAt               time.Time  `json:"created_at"` // UTC
	UpdatedAt               time.Time  `json:"updated_at"` // UTC
}

// HasEnded reports whether the course end date is set and has passed at now.
func (c Course) HasEnded(now time.Time) bool {
	return c.End != nil && c.End.Before(now)
}

// Mode is a track offered by a course.
type Mode struct {
	ID                 string     `json:"id"`
	CourseID           string     `json:"course_id"`
	Slug               string     `json:"slug"`
	Name               string     `json:"name"`
	MinPrice           int        `json:"min_price"`
	Currency           string     `json:"currency"`
	ExpirationDatetime *time.Time `json:"expiration_datetime,omitempty"` // UTC; upgrade deadline
}

// IsExpired reports whether the mode's expiration is set and not after now.
func (m Mode) IsExpired(now time.Time) bool {
	return m.ExpirationDatetime != nil && !m.ExpirationDatetime.After(now)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	ID                      string     `json:"id" validate:"required,coursekey"`
	DisplayName             string     `json:"display_name" validate:"required,notblank"`
	SelfPaced               bool       `json:"self_paced"`
	Start                   time.Time  `json:"start" validate:"required"`
	End                     *time.Time `json:"end" validate:"omitempty,gtfield=Start"`
	EligibleForFinancialAid *bool      `json:"eligible_for_financial_aid"`
}

func (nc *NewCourse) Validate() error {
	nc.ID = strings.TrimSpace(nc.ID)
	nc.DisplayName = strings.TrimSpace(nc.DisplayName)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	DisplayName             string     `json:"display_name"`
	SelfPaced               *bool      `json:"self_paced"`
	Start                   *time.Time `json:"start"`
	End                     *time.Time `json:"end"`
	ClearEnd                bool       `json:"clear_end"`
	EligibleForFinancialAid *bool      `json:"eligible_for_financial_aid"`
}

// NewMode contains information needed to add (or replace) a Mode of a Course.
type NewMode struct {
	Slug               string     `json:"slug" validate:"required,modeslug"`
	Name               string     `json:"name"`
	MinPrice           int        `json:"min_price" validate:"gte=0"`
	Currency           string     `json:"currency" validate:"omitempty,len=3"`
	ExpirationDatetime *time.Time `json:"expiration_datetime"`
}

func (nm *NewMode) Validate() error {
	nm.Slug = strings.ToLower(strings.TrimSpace(nm.Slug))
	nm.Currency = strings.ToLower(strings.TrimSpace(nm.Currency))
	return core.Validate.Struct(nm)
}
