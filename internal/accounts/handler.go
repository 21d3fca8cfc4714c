package accounts

import (
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
	r.Route("/companies/{companyID}/accounts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{code}", h.GetByCode)
	})
}

type bankRequest struct {
	BankName      string `json:"bankName" validate:"required"`
	BranchName    string `json:"branchName"`
	AccountNumber string `json:"accountNumber" validate:"required"`
}

type createRequest struct {
	Name           string          `json:"name" validate:"required"`
	SubName        string          `json:"subName"`
	Type           string          `json:"type" validate:"required"`
	Code           string          `json:"code"`
	Kind           string          `json:"kind" validate:"omitempty,oneof=GENERIC BANK"`
	Bank           *bankRequest    `json:"bank"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

type bankResponse struct {
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName,omitempty"`
	AccountNumber string `json:"accountNumber"`
}

type accountResponse struct {
	ID        int64         `json:"id"`
	CompanyID int64         `json:"companyId"`
	Name      string        `json:"name"`
	SubName   string        `json:"subName,omitempty"`
	Type      string        `json:"type"`
	Code      string        `json:"code"`
	Kind      string        `json:"kind"`
	Bank      *bankResponse `json:"bank,omitempty"`
	Balance   string        `json:"balance"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toResponse(a Account) accountResponse {
	out := accountResponse{
		ID:        a.ID,
		CompanyID: a.CompanyID,
		Name:      a.Name,
		SubName:   a.SubName,
		Type:      string(a.Type),
		Code:      a.Code,
		Kind:      string(a.Kind),
		Balance:   a.Balance.StringFixed(2),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Bank != nil {
		out.Bank = &bankResponse{
			BankName:      a.Bank.BankName,
			BranchName:    a.Bank.BranchName,
			AccountNumber: a.Bank.AccountNumber,
		}
	}
	return out
}

func pathCompanyID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	return id, err == nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathCompanyID(r)
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
	in := CreateInput{
		CompanyID:      companyID,
		Name:           req.Name,
		SubName:        req.SubName,
		Type:           AccountType(req.Type),
		Code:           req.Code,
		Kind:           Kind(req.Kind),
		OpeningBalance: req.OpeningBalance,
	}
	if req.Bank != nil {
		in.Bank = &BankDetails{
			BankName:      req.Bank.BankName,
			BranchName:    req.Bank.BranchName,
			AccountNumber: req.Bank.AccountNumber,
		}
	}
	acc, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create account failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(acc))
}

func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathCompanyID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	code := chi.URLParam(r, "code")
	acc, err := h.service.FindByCode(r.Context(), companyID, code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathCompanyID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	list, err := h.service.ListByCompany(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list accounts failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}
