package purchasing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vantage-books/vantage/internal/platform/httpx"
	salesshared "github.com/vantage-books/vantage/internal/sales/shared"
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
	r.Route("/companies/{companyID}/purchase-orders", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{orderID}", h.Get)
		r.Post("/{orderID}/payments", h.Pay)
	})
}

type lineRequest struct {
	ItemID          int64           `json:"itemId"`
	ProjectID       int64           `json:"projectId"`
	AccountCode     string          `json:"accountCode" validate:"required"`
	Description     string          `json:"description"`
	Quantity        int64           `json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type createRequest struct {
	SupplierID         int64           `json:"supplierId" validate:"required"`
	InvoiceNo          string          `json:"invoiceNo"`
	OrderDate          time.Time       `json:"orderDate" validate:"required"`
	DueDate            *time.Time      `json:"dueDate"`
	Freight            decimal.Decimal `json:"freight"`
	Tax                decimal.Decimal `json:"tax"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	PaymentAccountCode string          `json:"paymentAccountCode"`
	AuthorID           *int64          `json:"authorId"`
	Notes              string          `json:"notes"`
	Lines              []lineRequest   `json:"lines" validate:"required,min=1,dive"`
}

type paymentRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	PaymentAccountCode string          `json:"paymentAccountCode" validate:"required"`
	PaymentDate        time.Time       `json:"paymentDate" validate:"required"`
	AuthorID           *int64          `json:"authorId"`
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
	in := CreateInput{
		CompanyID:          companyID,
		SupplierID:         req.SupplierID,
		InvoiceNo:          req.InvoiceNo,
		OrderDate:          req.OrderDate,
		DueDate:            req.DueDate,
		Freight:            req.Freight,
		Tax:                req.Tax,
		AmountPaid:         req.AmountPaid,
		PaymentAccountCode: req.PaymentAccountCode,
		AuthorID:           req.AuthorID,
		Notes:              req.Notes,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, salesshared.LineItemInput{
			ItemID:          l.ItemID,
			ProjectID:       l.ProjectID,
			AccountCode:     l.AccountCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
		})
	}
	po, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create purchase order failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	orderID, ok := pathID(r, "orderID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	po, err := h.service.Pay(r.Context(), PaymentInput{
		CompanyID:          companyID,
		OrderID:            orderID,
		Amount:             req.Amount,
		PaymentAccountCode: req.PaymentAccountCode,
		PaymentDate:        req.PaymentDate,
		AuthorID:           req.AuthorID,
	})
	if err != nil {
		h.logger.Error("pay purchase order failed", "company_id", companyID, "order_id", orderID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	orderID, ok := pathID(r, "orderID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	po, err := h.service.Get(r.Context(), companyID, orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "companyID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return
	}
	out, err := h.service.ListByCompany(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list purchase orders failed", "company_id", companyID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
