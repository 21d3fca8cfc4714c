package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/platform/httpx"
)

// Handler exposes journal posting and lookup over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the HTTP surface for the ledger.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches the ledger routes under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/journal-entries", func(r chi.Router) {
		r.Post("/", h.Post)
		r.Get("/", h.List)
		r.Get("/{entryID}", h.Get)
	})
}

type lineRequest struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Debit       bool            `json:"debit"`
	Description string          `json:"description"`
}

type postRequest struct {
	Type        string        `json:"type" validate:"required,oneof=PURCHASE SALE PAYMENT RECEIPT MANUAL"`
	Date        time.Time     `json:"date" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	ReferenceNo string        `json:"referenceNo"`
	AuthorID    *int64        `json:"authorId"`
	Description string        `json:"description"`
	SourceID    string        `json:"sourceId"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type lineResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"accountId"`
	AccountCode string `json:"accountCode"`
	Amount      string `json:"amount"`
	Debit       bool   `json:"debit"`
	Description string `json:"description,omitempty"`
}

type entryResponse struct {
	ID          int64          `json:"id"`
	CompanyID   int64          `json:"companyId"`
	Type        string         `json:"type"`
	Date        time.Time      `json:"date"`
	Title       string         `json:"title"`
	ReferenceNo string         `json:"referenceNo,omitempty"`
	AuthorID    *int64         `json:"authorId,omitempty"`
	Description string         `json:"description,omitempty"`
	SourceID    string         `json:"sourceId"`
	CreatedAt   time.Time      `json:"createdAt"`
	Lines       []lineResponse `json:"lines"`
}

func toEntryResponse(e Entry) entryResponse {
	out := entryResponse{
		ID:          e.ID,
		CompanyID:   e.CompanyID,
		Type:        string(e.Type),
		Date:        e.Date,
		Title:       e.Title,
		ReferenceNo: e.ReferenceNo,
		AuthorID:    e.AuthorID,
		Description: e.Description,
		SourceID:    e.SourceID.String(),
		CreatedAt:   e.CreatedAt,
		Lines:       make([]lineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Amount:      l.Amount.StringFixed(2),
			Debit:       l.Debit,
			Description: l.Description,
		})
	}
	return out
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sourceID := uuid.New()
	if req.SourceID != "" {
		parsed, err := uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "sourceId must be a UUID")
			return
		}
		sourceID = parsed
	}
	in := PostingInput{
		CompanyID:   companyID,
		Type:        EntryType(req.Type),
		Date:        req.Date,
		Title:       req.Title,
		ReferenceNo: req.ReferenceNo,
		AuthorID:    req.AuthorID,
		Description: req.Description,
		SourceID:    sourceID,
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountCode: line.AccountCode,
			Amount:      line.Amount,
			Debit:       line.Debit,
			Description: line.Description,
		})
	}
	entry, err := h.service.Post(r.Context(), in)
	if err != nil {
		h.logger.Error("post journal entry failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), companyID, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	entries, err := h.service.ListByCompany(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list journal entries failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}
