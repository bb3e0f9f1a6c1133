package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
)

type reactionApi struct {
	svc reaction.Service
}

func registerReactionAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc reaction.Service) {
	api := reactionApi{svc: svc}
	student := rolesMiddleware(user.RoleStudent)

	g := app.Group("/reactions", jwt)
	g.POST("", api.react, student)
	g.GET("/user/:id", api.queryByUser, rolesMiddleware(user.AllRoles...), ownerOrElevatedMiddleware())

	// the caller's own reaction to one target
	g.GET("/material/:materialId", api.retrieve(reaction.KindMaterial, "materialId"), student)
	g.DELETE("/material/:materialId", api.destroy(reaction.KindMaterial, "materialId"), student)
	g.GET("/practice/:practiceCode", api.retrieve(reaction.KindPractice, "practiceCode"), student)
	g.DELETE("/practice/:practiceCode", api.destroy(reaction.KindPractice, "practiceCode"), student)
}

// Handlers

func (api *reactionApi) react(ctx echo.Context) error {
	var data reaction.NewReaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReaction")
	}

	p, err := contextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	r, err := api.svc.React(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving reaction")
	}
	return ctx.JSON(http.StatusCreated, ReactionResponse{Message: "Reaction saved successfully", Reaction: r})
}

func (api *reactionApi) queryByUser(ctx echo.Context) error {
	reactions, err := api.svc.QueryByUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying reactions")
	}
	return ctx.JSON(http.StatusOK, ReactionsResponse{Message: "Reactions retrieved successfully", Reactions: reactions})
}

func (api *reactionApi) retrieve(kind reaction.Kind, param string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := contextPrincipal(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context principal")
		}

		r, err := api.svc.Get(ctx.Request().Context(), p.ID, kind, ctx.Param(param))
		if err != nil {
			return errors.Wrap(err, "getting reaction")
		}
		return ctx.JSON(http.StatusOK, ReactionResponse{Message: "Reaction retrieved successfully", Reaction: r})
	}
}

func (api *reactionApi) destroy(kind reaction.Kind, param string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := contextPrincipal(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context principal")
		}

		if err = api.svc.Delete(ctx.Request().Context(), p.ID, kind, ctx.Param(param)); err != nil {
			return errors.Wrap(err, "deleting reaction")
		}
		return ctx.JSON(http.StatusOK, messageResponse{Message: "Reaction deleted successfully"})
	}
}

type (
	ReactionResponse struct {
		Message  string            `json:"message"`
		Reaction reaction.Reaction `json:"reaction"`
	}

	ReactionsResponse struct {
		Message   string              `json:"message"`
		Reactions []reaction.Reaction `json:"reactions"`
	}
)
