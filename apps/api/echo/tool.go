package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/coursetool"
)

type toolApi struct {
	auth  *authenticator
	tools *coursetool.Manager
}

func registerToolAPI(g *echo.Group, auth *authenticator, tools *coursetool.Manager) {
	api := toolApi{auth: auth, tools: tools}

	tg := g.Group("/courses/:course_id/tools", auth.optional())
	tg.GET("", api.query)
	tg.GET("/:tool_id", api.retrieve)
}

// request builds the evaluation request of the (possibly anonymous) requesting user.
func (api *toolApi) request(ctx echo.Context) (coursetool.Request, error) {
	usr, err := api.auth.optionalContextUser(ctx)
	if err != nil {
		return coursetool.Request{}, err
	}
	return coursetool.NewRequest(usr), nil
}

func (api *toolApi) query(ctx echo.Context) error {
	req, err := api.request(ctx)
	if err != nil {
		return err
	}
	tools, err := api.tools.EnabledTools(ctx.Request().Context(), req, ctx.Param("course_id"))
	if err != nil {
		return errors.Wrap(err, "evaluating course tools")
	}

	resp := make([]ToolResponse, 0, len(tools))
	for _, tool := range tools {
		resp = append(resp, newToolResponse(tool, ctx.Param("course_id")))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *toolApi) retrieve(ctx echo.Context) error {
	tool, err := api.tools.Tool(ctx.Param("tool_id"))
	if err != nil {
		return err
	}
	req, err := api.request(ctx)
	if err != nil {
		return err
	}
	enabled, err := tool.IsEnabled(ctx.Request().Context(), req, ctx.Param("course_id"))
	if err != nil {
		return errors.Wrap(err, "evaluating course tool")
	}
	return ctx.JSON(http.StatusOK, ToolStatusResponse{ID: tool.AnalyticsID(), Enabled: enabled})
}

type (
	ToolResponse struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		IconClasses string `json:"icon_classes"`
		URL         string `json:"url"`
	}

	ToolStatusResponse struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
)

func newToolResponse(tool coursetool.Tool, courseID string) ToolResponse {
	return ToolResponse{
		ID:          tool.AnalyticsID(),
		Title:       tool.Title(),
		IconClasses: tool.IconClasses(),
		URL:         tool.URL(courseID),
	}
}
