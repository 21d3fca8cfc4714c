package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/aging"
	"github.com/vantage-books/vantage/internal/company"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/notify"
	"github.com/vantage-books/vantage/internal/observability"
	"github.com/vantage-books/vantage/internal/purchasing"
	"github.com/vantage-books/vantage/internal/sales/orders"
	"github.com/vantage-books/vantage/internal/sales/quotations"
	"github.com/vantage-books/vantage/internal/treasury"
	"github.com/vantage-books/vantage/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CompanyHandler    *company.Handler
	AccountsHandler   *accounts.Handler
	LedgerHandler     *ledger.Handler
	PurchasingHandler *purchasing.Handler
	OrdersHandler     *orders.Handler
	QuotationsHandler *quotations.Handler
	TreasuryHandler   *treasury.Handler
	AgingHandler      *aging.Handler
	MasterDataHandler *masterdata.Handler
	NotifyHandler     *notify.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the default middleware chain and
// every module mounted under /api/v1.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		params.CompanyHandler.MountRoutes(r)
		params.AccountsHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.PurchasingHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.QuotationsHandler.MountRoutes(r)
		params.TreasuryHandler.MountRoutes(r)
		params.AgingHandler.MountRoutes(r)
		params.MasterDataHandler.MountRoutes(r)
		params.NotifyHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
