package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
)

type statisticApi struct {
	svc statistic.Service
}

func registerStatisticAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc statistic.Service) {
	api := statisticApi{svc: svc}

	g := app.Group("/statistics", jwt)
	g.POST("", api.track, rolesMiddleware(user.RoleStudent))
	g.GET("/user/:id", api.queryByUser, rolesMiddleware(user.ElevatedRoles...))

	// per-user reports
	g.GET("/summary/user/:id", api.summary, rolesMiddleware(user.AllRoles...), ownerOrElevatedMiddleware())
	g.GET("/progress/user/:id", api.progress, rolesMiddleware(user.AllRoles...), ownerOrElevatedMiddleware())
}

// Handlers

func (api *statisticApi) track(ctx echo.Context) error {
	var data statistic.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}

	p, err := contextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	evt, err := api.svc.Track(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "tracking statistic")
	}
	return ctx.JSON(http.StatusCreated, StatisticResponse{Message: "Statistic recorded successfully", Statistic: evt})
}

func (api *statisticApi) queryByUser(ctx echo.Context) error {
	events, err := api.svc.QueryByUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying statistics")
	}
	return ctx.JSON(http.StatusOK, StatisticsResponse{Message: "Statistics retrieved successfully", Statistics: events})
}

func (api *statisticApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing summary")
	}
	return ctx.JSON(http.StatusOK, SummaryResponse{Message: "Summary retrieved successfully", Summary: sum})
}

func (api *statisticApi) progress(ctx echo.Context) error {
	prog, err := api.svc.Progress(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Message: "Progress retrieved successfully", Progress: prog})
}

type (
	StatisticResponse struct {
		Message   string          `json:"message"`
		Statistic statistic.Event `json:"statistic"`
	}

	StatisticsResponse struct {
		Message    string            `json:"message"`
		Statistics []statistic.Event `json:"statistics"`
	}

	SummaryResponse struct {
		Message string            `json:"message"`
		Summary statistic.Summary `json:"summary"`
	}

	ProgressResponse struct {
		Message  string             `json:"message"`
		Progress statistic.Progress `json:"progress"`
	}
)
