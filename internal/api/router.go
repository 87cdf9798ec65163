package api

import (
	"database/sql"
	"net/http"

	"github.com/mklavora/fieldstock/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	stocksHandler := &StocksHandler{DB: db}
	engineersHandler := &EngineersHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	usageHandler := &UsageHandler{DB: db}
	dashboardHandler := &DashboardHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	hodOnly := RequireRole(model.RoleHOD)
	engineerOnly := RequireRole(model.RoleEngineer)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Dashboard: role-shaped summary.
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))

	// Central stock ledger: read (both roles), write (HOD).
	mux.Handle("GET /api/stocks", authMW(http.HandlerFunc(stocksHandler.List)))
	mux.Handle("POST /api/stocks", authMW(hodOnly(http.HandlerFunc(stocksHandler.Create))))
	mux.Handle("GET /api/stocks/{id}", authMW(http.HandlerFunc(stocksHandler.Get)))
	mux.Handle("PUT /api/stocks/{id}", authMW(hodOnly(http.HandlerFunc(stocksHandler.Update))))
	mux.Handle("DELETE /api/stocks/{id}", authMW(hodOnly(http.HandlerFunc(stocksHandler.Delete))))
	mux.Handle("PUT /api/stocks/{id}/photo", authMW(hodOnly(http.HandlerFunc(stocksHandler.UploadPhoto))))
	mux.Handle("GET /api/stocks/{id}/photo", authMW(http.HandlerFunc(stocksHandler.GetPhoto)))

	// Engineer accounts (HOD only).
	mux.Handle("GET /api/engineers", authMW(hodOnly(http.HandlerFunc(engineersHandler.List))))
	mux.Handle("POST /api/engineers", authMW(hodOnly(http.HandlerFunc(engineersHandler.Create))))
	mux.Handle("GET /api/engineers/{id}", authMW(hodOnly(http.HandlerFunc(engineersHandler.Get))))
	mux.Handle("PUT /api/engineers/{id}", authMW(hodOnly(http.HandlerFunc(engineersHandler.Update))))
	mux.Handle("DELETE /api/engineers/{id}", authMW(hodOnly(http.HandlerFunc(engineersHandler.Delete))))

	// Requests: engineers create/receive/cancel, HOD approves/denies/dispatches.
	mux.Handle("POST /api/requests", authMW(engineerOnly(http.HandlerFunc(requestsHandler.Create))))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/approve", authMW(hodOnly(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/deny", authMW(hodOnly(http.HandlerFunc(requestsHandler.Deny))))
	mux.Handle("POST /api/requests/{id}/dispatch", authMW(hodOnly(http.HandlerFunc(requestsHandler.Dispatch))))
	mux.Handle("POST /api/requests/{id}/receive", authMW(engineerOnly(http.HandlerFunc(requestsHandler.Receive))))
	mux.Handle("DELETE /api/requests/{id}", authMW(engineerOnly(http.HandlerFunc(requestsHandler.Cancel))))

	// Personal inventory: engineer sees own, HOD sees all.
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(usageHandler.ListInventory)))

	// Usage log: engineers issue, both roles read (scoped).
	mux.Handle("POST /api/usage", authMW(engineerOnly(http.HandlerFunc(usageHandler.Issue))))
	mux.Handle("GET /api/usage", authMW(http.HandlerFunc(usageHandler.List)))

	return mux
}
