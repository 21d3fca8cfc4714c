package treasury

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/money-transactions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{transactionID}", h.Get)
	})
}

type createRequest struct {
	Type              string          `json:"type" validate:"required,oneof=SPEND RECEIVE"`
	BankAccountCode   string          `json:"bankAccountCode" validate:"required"`
	ChargeAccountCode string          `json:"chargeAccountCode" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date" validate:"required"`
	Description       string          `json:"description"`
	AuthorID          *int64          `json:"authorId"`
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	mt, err := h.service.Create(r.Context(), CreateInput{
		CompanyID:         companyID,
		Type:              TransactionType(req.Type),
		BankAccountCode:   req.BankAccountCode,
		ChargeAccountCode: req.ChargeAccountCode,
		Amount:            req.Amount,
		Date:              req.Date,
		Description:       req.Description,
		AuthorID:          req.AuthorID,
	})
	if err != nil {
		h.logger.Error("create money transaction failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mt)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	transactionID, ok := pathID(r, "transactionID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	mt, err := h.service.Get(r.Context(), companyID, transactionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mt)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	f, err := parseListFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	out, err := h.service.ListByCompany(r.Context(), companyID, f)
	if err != nil {
		h.logger.Error("list money transactions failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// parseListFilter reads the optional type, from and to query parameters.
// Dates accept either RFC 3339 or a bare 2006-01-02 day.
func parseListFilter(r *http.Request) (ListFilter, error) {
	var f ListFilter
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		f.Type = TransactionType(v)
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return ListFilter{}, errors.New("invalid from date")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return ListFilter{}, errors.New("invalid to date")
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
