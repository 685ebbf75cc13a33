package access

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/metrics"
)

// ErrorResponder writes the rejection for a failed guard check. err matches
// common.ErrUnauthenticated, common.ErrForbidden or is an internal error.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Require runs guard before next. On rejection next is never called and the
// response comes from respond alone.
func Require(guard Guard, respond ErrorResponder, logger logging.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := guard.Check(ctx, r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				switch {
				case errors.Is(err, common.ErrUnauthenticated):
					m.GuardDecision(metrics.DecisionUnauthenticated)
					logger.Debug(ctx, "request unauthenticated", "path", r.URL.Path, "reason", err.Error())
				case errors.Is(err, common.ErrForbidden):
					m.GuardDecision(metrics.DecisionForbidden)
					logger.Info(ctx, "request forbidden", "path", r.URL.Path)
				default:
					m.GuardDecision(metrics.DecisionError)
					logger.Error(ctx, "access check failed", "path", r.URL.Path, "error", err)
				}
				respond(w, r, err)
				return
			}

			m.GuardDecision(metrics.DecisionAllowed)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
