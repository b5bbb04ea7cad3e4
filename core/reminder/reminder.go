package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/coursetool"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/core/user"
)

const (
	TaskName     = "upgrade_reminders"
	templateName = "upgrade_reminder"
	dateLayout   = "January 2, 2006"
)

var NowFunc = time.Now // mockable

type (
	Payload struct {
		CourseID   string `json:"course_id"`
		WindowDays int    `json:"window_days"` // defaults to the configured reminder window
	}

	Result struct {
		Sent int `json:"sent"`
	}

	Deps struct {
		Conf        *core.Config
		Courses     *course.Service
		Enrollments *enrollment.Service
		Users       *user.Service
		UpgradeTool coursetool.Tool
		Mailer      core.EmailService
		Logger      core.Logger
	}
)

// Register registers the upgrade reminders task on q.
func Register(q *task.Queue, deps Deps) {
	q.Register(TaskName, deps.sendReminders)
}

// sendReminders emails the active upsell learners of a course whose upgrade deadline falls within the window
// and who can still upgrade.
func (d Deps) sendReminders(ctx context.Context, data json.RawMessage) (interface{}, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}
	window := d.Conf.Upgrade.ReminderWindow
	if p.WindowDays > 0 {
		window = time.Duration(p.WindowDays) * 24 * time.Hour
	}

	crs, err := d.Courses.Get(ctx, p.CourseID)
	if err != nil {
		return nil, errors.Wrap(err, "getting course")
	}
	active := true
	enrollments, err := d.Enrollments.Query(ctx, enrollment.QueryFilter{
		CourseID: crs.ID,
		IsActive: &active,
		Modes:    course.UpsellToVerifiedModes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	now := NowFunc().UTC()
	until := now.Add(window)
	messages := make([]*core.EmailMessage, 0)
	for _, enr := range enrollments {
		deadline, err := d.Enrollments.UpgradeDeadline(ctx, enr, crs)
		if err != nil {
			return nil, errors.Wrap(err, "getting upgrade deadline")
		}
		if deadline == nil || !deadline.After(now) || deadline.After(until) {
			continue
		}

		usr, err := d.Users.GetByID(ctx, enr.UserID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				d.Logger.Warn(fmt.Sprintf("upgrade reminder: user %s of enrollment %s not found", enr.UserID, enr.ID))
				continue
			}
			return nil, errors.Wrap(err, "getting user")
		}
		if !usr.IsActive || usr.Email == "" {
			continue
		}
		// only learners the upgrade tool is shown to can still upgrade
		canUpgrade, err := d.UpgradeTool.IsEnabled(ctx, coursetool.Request{User: &usr, Now: now}, crs.ID)
		if err != nil {
			return nil, errors.Wrap(err, "checking upgrade eligibility")
		}
		if !canUpgrade {
			continue
		}
		messages = append(messages, d.newMessage(usr, crs, *deadline))
	}

	if len(messages) > 0 {
		d.Mailer.SendMessages(messages...)
	}
	return Result{Sent: len(messages)}, nil
}

func (d Deps) newMessage(usr user.User, crs course.Course, deadline time.Time) *core.EmailMessage {
	name := usr.Name
	if name == "" {
		name = usr.Username
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Upgrade to verified before " + deadline.Format(dateLayout),
		TemplateName: templateName,
		TemplateData: map[string]interface{}{
			"Name":       name,
			"CourseName": crs.DisplayName,
			"Deadline":   deadline.Format(dateLayout),
			"UpgradeURL": d.UpgradeTool.URL(crs.ID),
		},
	}
}
