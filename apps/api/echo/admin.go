package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/reminder"
	"github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/core/upgrade"
)

type adminApi struct {
	courses     *course.Service
	deadlines   *upgrade.Service
	enrollments *enrollment.Service
	tasks       *task.Queue
}

func registerAdminAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := adminApi{
		courses:     deps.CourseSvc,
		deadlines:   deps.DeadlineSvc,
		enrollments: deps.EnrollmentSvc,
		tasks:       deps.Tasks,
	}
	admin := []echo.MiddlewareFunc{auth.required(), auth.adminOnly()}

	g.POST("/courses", api.createCourse, admin...)
	g.GET("/courses/:course_id", api.retrieveCourse, admin...)
	g.PATCH("/courses/:course_id", api.updateCourse, admin...)
	g.GET("/courses/:course_id/modes", api.queryModes, admin...)
	g.PUT("/courses/:course_id/modes", api.setMode, admin...)
	g.DELETE("/courses/:course_id/modes/:mode", api.deleteMode, admin...)
	g.GET("/courses/:course_id/enrollments", api.queryEnrollments, admin...)
	g.PUT("/courses/:course_id/dynamic-deadline", api.setCourseDeadlineConfig, admin...)

	g.GET("/config/dynamic-deadline", api.retrieveDeadlineConfig, admin...)
	g.PUT("/config/dynamic-deadline", api.setDeadlineConfig, admin...)

	g.POST("/tasks/upgrade-reminders", api.sendUpgradeReminders, admin...)
	g.GET("/tasks/:task_id", api.retrieveTask, admin...)
}

// Courses

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.courses.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) retrieveCourse(ctx echo.Context) error {
	crs, err := api.courses.Get(ctx.Request().Context(), ctx.Param("course_id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) updateCourse(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	crs, err := api.courses.Update(ctx.Request().Context(), ctx.Param("course_id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) queryModes(ctx echo.Context) error {
	modes, err := api.courses.Modes(ctx.Request().Context(), ctx.Param("course_id"))
	if err != nil {
		return errors.Wrap(err, "querying course modes")
	}
	return ctx.JSON(http.StatusOK, modes)
}

func (api *adminApi) setMode(ctx echo.Context) error {
	var data course.NewMode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMode")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mode, err := api.courses.SetMode(ctx.Request().Context(), ctx.Param("course_id"), data)
	if err != nil {
		return errors.Wrap(err, "setting course mode")
	}
	return ctx.JSON(http.StatusOK, mode)
}

func (api *adminApi) deleteMode(ctx echo.Context) error {
	if err := api.courses.DeleteMode(ctx.Request().Context(), ctx.Param("course_id"), ctx.Param("mode")); err != nil {
		return errors.Wrap(err, "deleting course mode")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryEnrollments(ctx echo.Context) error {
	courseID := ctx.Param("course_id")
	if _, err := api.courses.Get(ctx.Request().Context(), courseID); err != nil {
		return errors.Wrap(err, "getting course")
	}
	var f EnrollmentFilter
	if err := f.Bind(ctx); err != nil {
		return err
	}
	f.Filter.CourseID = courseID

	enrollments, err := api.enrollments.Query(ctx.Request().Context(), f.Filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

// Dynamic upgrade deadlines

func (api *adminApi) retrieveDeadlineConfig(ctx echo.Context) error {
	cfg, err := api.deadlines.CurrentConfig(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting dynamic deadline config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

func (api *adminApi) setDeadlineConfig(ctx echo.Context) error {
	var data upgrade.UpdateConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConfig")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	cfg, err := api.deadlines.SaveConfig(ctx.Request().Context(), data, claims.Username)
	if err != nil {
		return errors.Wrap(err, "saving dynamic deadline config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

func (api *adminApi) setCourseDeadlineConfig(ctx echo.Context) error {
	var data upgrade.UpdateCourseConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourseConfig")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	courseID := ctx.Param("course_id")
	if _, err := api.courses.Get(ctx.Request().Context(), courseID); err != nil {
		return errors.Wrap(err, "getting course")
	}
	cfg, err := api.deadlines.SaveCourseConfig(ctx.Request().Context(), courseID, data, claims.Username)
	if err != nil {
		return errors.Wrap(err, "saving course dynamic deadline config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

// Tasks

func (api *adminApi) sendUpgradeReminders(ctx echo.Context) error {
	var data UpgradeRemindersRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpgradeRemindersRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if _, err := api.courses.Get(ctx.Request().Context(), data.CourseID); err != nil {
		return errors.Wrap(err, "getting course")
	}

	t, err := api.tasks.Submit(ctx.Request().Context(), reminder.TaskName, reminder.Payload(data))
	if err != nil {
		return errors.Wrap(err, "submitting upgrade reminders")
	}
	return ctx.JSON(http.StatusAccepted, t)
}

func (api *adminApi) retrieveTask(ctx echo.Context) error {
	t, err := api.tasks.Status(ctx.Param("task_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

type UpgradeRemindersRequest struct {
	CourseID   string `json:"course_id" validate:"required,coursekey"`
	WindowDays int    `json:"window_days" validate:"gte=0,lte=365"`
}

func (r *UpgradeRemindersRequest) Validate() error {
	r.CourseID = core.CleanString(r.CourseID)
	return core.Validate.Struct(r)
}
