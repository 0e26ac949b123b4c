package analysishttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the analysis endpoints onto the router. The full
// scan endpoint is rate limited per client because a cold cache walks the
// whole movement ledger.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/analysis", h.handleAnalysis)
		gr.Get("/analysis/items/{itemID}", h.handleAnalysisItem)
	})
}
