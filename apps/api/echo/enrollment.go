package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/enrollment"
)

type enrollmentApi struct {
	auth *authenticator
	svc  *enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, auth *authenticator, svc *enrollment.Service) {
	api := enrollmentApi{auth: auth, svc: svc}

	eg := g.Group("/courses/:course_id/enrollment", auth.required())
	eg.GET("", api.retrieve)
	eg.POST("", api.enroll)
	eg.DELETE("", api.unenroll)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("course_id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), usr.ID, ctx.Param("course_id"), data.Mode)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if _, err := api.svc.Unenroll(ctx.Request().Context(), usr.ID, ctx.Param("course_id")); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}
