package aging

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-books/vantage/internal/platform/httpx"
)

// Handler serves the aging reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/aging/{side}", func(r chi.Router) {
		r.Get("/", h.AgedBalances)
		r.Get("/parties/{partyID}", h.History)
	})
}

func parseSide(raw string) (Side, bool) {
	switch strings.ToUpper(raw) {
	case "PAYABLE":
		return SidePayable, true
	case "RECEIVABLE":
		return SideReceivable, true
	}
	return "", false
}

func (h *Handler) AgedBalances(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	side, ok := parseSide(chi.URLParam(r, "side"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "side must be payable or receivable")
		return
	}
	rows, err := h.service.AgedBalances(r.Context(), companyID, side)
	if err != nil {
		h.logger.Error("aged balances failed", "company_id", companyID, "side", side, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	side, ok := parseSide(chi.URLParam(r, "side"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "side must be payable or receivable")
		return
	}
	partyID, err := strconv.ParseInt(chi.URLParam(r, "partyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}
	snaps, err := h.service.History(r.Context(), companyID, side, partyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snaps)
}
