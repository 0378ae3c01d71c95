package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

// gateMiddleware runs the session gate for a role-restricted route group:
// anonymous requests are redirected to the login surface and wrong-role
// requests to the requester's own home, with a visible notice. Allowed
// requests carry the resolved principal in the context.
func gateMiddleware(role string, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			principal, err := resolvePrincipal(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "resolving principal")
			}

			state := session.StateFor(principal)
			decision := session.Decide(state, session.Route{Path: ctx.Path(), Role: role})
			switch decision.Action {
			case session.ActionRender:
				ctx.Set(contextUserKey, *principal)
				return next(ctx)
			case session.ActionWait:
				return ctx.JSON(http.StatusOK, echo.Map{"status": session.StateResolving.String()})
			default:
				return redirect(ctx, decision)
			}
		}
	}
}

func redirect(ctx echo.Context, decision session.Decision) error {
	location := decision.Location
	if decision.Notice != "" {
		location += "?notice=" + url.QueryEscape(decision.Notice)
	}
	return ctx.Redirect(http.StatusSeeOther, location)
}
