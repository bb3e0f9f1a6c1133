package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
)

type materialApi struct {
	svc material.Service
}

func registerMaterialAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc material.Service) {
	api := materialApi{svc: svc}

	g := app.Group("/materials", jwt, rolesMiddleware(user.RoleAdmin))
	g.GET("", api.query)
	g.POST("", api.create)

	// detail endpoints
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

// Handlers

func (api *materialApi) query(ctx echo.Context) error {
	var ordering Ordering
	ordering.Bind(ctx, material.OrderingFields)

	mats, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, MaterialsResponse{Message: "Materials retrieved successfully", Materials: mats})
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}

	mat, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, MaterialResponse{Message: "Material created successfully", Material: mat})
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	mat, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting material")
	}
	return ctx.JSON(http.StatusOK, MaterialResponse{Message: "Material retrieved successfully", Material: mat})
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}

	mat, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating material")
	}
	return ctx.JSON(http.StatusOK, MaterialResponse{Message: "Material updated successfully", Material: mat})
}

func (api *materialApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Material deleted successfully"})
}

type (
	MaterialResponse struct {
		Message  string            `json:"message"`
		Material material.Material `json:"material"`
	}

	MaterialsResponse struct {
		Message   string              `json:"message"`
		Materials []material.Material `json:"materials"`
	}
)
