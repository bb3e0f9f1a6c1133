package echoapi

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

const tracerName = "github.com/dewinurmalitasari/geoviz-server/apps/api/echo"

// rolesMiddleware lets through callers holding any of roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := contextPrincipal(ctx)
			if err != nil {
				return err
			}
			if p.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ownerOrElevatedMiddleware lets admins and teachers through. Anybody else may only reach
// their own data, named by the ":id" path param. A malformed id is a 404 whoever asks.
func ownerOrElevatedMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !core.IsValidID(ctx.Param("id")) {
				return errUserNotFound
			}
			p, err := contextPrincipal(ctx)
			if err != nil {
				return err
			}
			if p.CanAccess(ctx.Param("id")) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// tracingMiddleware opens a server span per request, continuing any trace propagated by the caller.
func tracingMiddleware() echo.MiddlewareFunc {
	tracer := otel.Tracer(tracerName)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			reqCtx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			spanName := req.Method + " " + ctx.Path()
			reqCtx, span := tracer.Start(reqCtx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", ctx.Path()),
				),
			)
			defer span.End()

			ctx.SetRequest(req.WithContext(reqCtx))
			err := next(ctx)
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
	}
}
