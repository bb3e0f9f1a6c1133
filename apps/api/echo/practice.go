package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
)

type practiceApi struct {
	svc practice.Service
}

func registerPracticeAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc practice.Service) {
	api := practiceApi{svc: svc}

	g := app.Group("/practices", jwt)
	g.POST("", api.submit, rolesMiddleware(user.RoleStudent))
	g.GET("/user/:id", api.queryByUser, rolesMiddleware(user.AllRoles...), ownerOrElevatedMiddleware())
}

// Handlers

func (api *practiceApi) submit(ctx echo.Context) error {
	var data practice.NewPractice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPractice")
	}

	p, err := contextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	prac, err := api.svc.Submit(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting practice")
	}
	return ctx.JSON(http.StatusCreated, PracticeResponse{Message: "Practice submitted successfully", Practice: prac})
}

func (api *practiceApi) queryByUser(ctx echo.Context) error {
	pracs, err := api.svc.QueryByUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying practices")
	}
	return ctx.JSON(http.StatusOK, PracticesResponse{Message: "Practices retrieved successfully", Practices: pracs})
}

type (
	PracticeResponse struct {
		Message  string            `json:"message"`
		Practice practice.Practice `json:"practice"`
	}

	PracticesResponse struct {
		Message   string              `json:"message"`
		Practices []practice.Practice `json:"practices"`
	}
)
