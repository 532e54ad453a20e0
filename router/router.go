package router

import (
	"net/http"

	"saveai-api/common"
	_ "saveai-api/docs"
	"saveai-api/handler"
	"saveai-api/metrics"
	"saveai-api/model"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Transactions *handler.TransactionHandler
	Blockchain   *handler.BlockchainHandler
	Security     *handler.SecurityHandler
	Tax          *handler.TaxHandler
	Analytics    *handler.AnalyticsHandler
}

func NewRouter(h Handlers, verifier handler.TokenVerifier, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	auth := handler.AuthMiddleware(verifier)
	protected := func(fn func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return auth(handler.ErrorHandlingMiddleware(fn))
	}
	admin := func(fn func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return auth(handler.RequirePermission(model.PermissionAdmin)(handler.ErrorHandlingMiddleware(fn)))
	}

	// Public
	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Transactions
	mux.Handle("POST /api/v1/transactions", protected(h.Transactions.CreateTransaction))
	mux.Handle("GET /api/v1/transactions", protected(h.Transactions.ListTransactions))
	mux.Handle("GET /api/v1/transactions/{id}", protected(h.Transactions.GetTransaction))
	mux.Handle("PATCH /api/v1/transactions/{id}/status", protected(h.Transactions.UpdateTransactionStatus))

	// Blockchain
	mux.Handle("POST /api/v1/blockchain/verify", protected(h.Blockchain.VerifyAttestation))
	mux.Handle("GET /api/v1/blockchain/status", protected(h.Blockchain.ChainStatus))

	// Security
	mux.Handle("POST /api/v1/security/token", admin(h.Security.IssueToken))
	mux.Handle("POST /api/v1/security/validate", protected(h.Security.ValidateTransaction))

	// Tax
	mux.Handle("POST /api/v1/tax/calculate", protected(h.Tax.CalculateVAT))
	mux.Handle("GET /api/v1/tax/report/{year}", protected(h.Tax.TaxReport))

	// Analytics
	mux.Handle("GET /api/v1/analytics/spending", protected(h.Analytics.SpendingPatterns))
	mux.Handle("GET /api/v1/analytics/insights", protected(h.Analytics.Insights))

	return handler.MetricsMiddleware(m, mux)
}
