// Package analysishttp exposes the analysis engine over JSON endpoints.
package analysishttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stocklens/stocklens/internal/analysis"
	"github.com/stocklens/stocklens/internal/ledger"
	"github.com/stocklens/stocklens/internal/platform/httpx"
)

const requestTimeout = 15 * time.Second

// AnalysisService defines the dashboard data contract used by the handler.
type AnalysisService interface {
	Analyze(ctx context.Context, filter analysis.Filter) ([]analysis.Result, error)
	AnalyzeItem(ctx context.Context, filter analysis.Filter, itemID string) (analysis.Result, error)
}

// Handler coordinates HTTP requests for the inventory analysis dashboard.
type Handler struct {
	logger    *slog.Logger
	service   AnalysisService
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs the analysis HTTP handler.
func NewHandler(logger *slog.Logger, service AnalysisService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		now:       time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type filterQuery struct {
	From     string  `validate:"required,datetime=2006-01-02"`
	To       string  `validate:"required,datetime=2006-01-02"`
	Months   float64 `validate:"gt=0"`
	Category string  `validate:"omitempty,max=120"`
}

func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	results, err := h.service.Analyze(ctx, filter)
	if err != nil {
		h.respondServiceError(w, "analyze", err)
		return
	}

	httpx.JSON(w, http.StatusOK, analysisResponse{
		GeneratedAt: h.now().UTC(),
		From:        filter.Window.Start.Format("2006-01-02"),
		To:          filter.Window.End.Format("2006-01-02"),
		Months:      filter.Window.Months,
		Category:    filter.Category,
		Count:       len(results),
		Items:       results,
	})
}

func (h *Handler) handleAnalysisItem(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item id is required")
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.AnalyzeItem(ctx, filter, itemID)
	if err != nil {
		h.respondServiceError(w, "analyze item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// parseFilter reads the window from query parameters. Months defaults to
// the calendar month span between from and to when omitted, since most
// dashboard calls want the natural divisor.
func (h *Handler) parseFilter(r *http.Request) (analysis.Filter, error) {
	q := r.URL.Query()
	params := filterQuery{
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	if raw := strings.TrimSpace(q.Get("months")); raw != "" {
		months, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return analysis.Filter{}, errors.New("months must be a number")
		}
		params.Months = months
	}

	var start, end time.Time
	if params.From != "" {
		start, _ = time.Parse("2006-01-02", params.From)
	}
	if params.To != "" {
		end, _ = time.Parse("2006-01-02", params.To)
	}
	if params.Months == 0 && !start.IsZero() && !end.IsZero() {
		params.Months = monthSpan(start, end)
	}

	if err := h.validator.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return analysis.Filter{}, errors.New(strings.ToLower(fieldErrs[0].Field()) + " is invalid")
		}
		return analysis.Filter{}, err
	}

	filter := analysis.Filter{
		Window: ledger.PeriodWindow{
			Start:  start,
			End:    end,
			Months: params.Months,
		},
		Category: params.Category,
	}
	if err := filter.Window.Validate(); err != nil {
		return analysis.Filter{}, err
	}
	return filter, nil
}

// monthSpan counts calendar months between two dates, never below one.
func monthSpan(start, end time.Time) float64 {
	months := float64((end.Year()-start.Year())*12+int(end.Month())-int(start.Month())) +
		float64(end.Day()-start.Day())/30
	if months < 1 {
		return 1
	}
	return months
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, analysis.ErrItemNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ledger.ErrInvalidWindow):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "analysis timed out")
	default:
		h.logger.Error("analysis request failed", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

type analysisResponse struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Months      float64           `json:"months"`
	Category    string            `json:"category,omitempty"`
	Count       int               `json:"count"`
	Items       []analysis.Result `json:"items"`
}
