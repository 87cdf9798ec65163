package api

import (
	"database/sql"
	"net/http"

	"github.com/mklavora/fieldstock/internal/model"
	"github.com/mklavora/fieldstock/internal/store"
)

// DashboardHandler serves the role-shaped overview.
type DashboardHandler struct {
	DB *sql.DB
}

type hodDashboard struct {
	Stocks    []model.Stock         `json:"stocks"`
	Engineers []model.User          `json:"engineers"`
	Requests  []model.Request       `json:"requests"`
	Inventory []model.PersonalStock `json:"inventory"`
	Usage     []model.UsageRecord   `json:"usage"`
}

type engineerDashboard struct {
	Stocks    []model.Stock         `json:"stocks"`
	Requests  []model.Request       `json:"requests"`
	Inventory []model.PersonalStock `json:"inventory"`
	Usage     []model.UsageRecord   `json:"usage"`
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	ctx := r.Context()

	stocks, err := store.ListStocks(ctx, h.DB)
	if err != nil {
		storeError(w, err, "dashboard stocks")
		return
	}
	if stocks == nil {
		stocks = []model.Stock{}
	}

	if claims.Role == model.RoleHOD {
		engineers, err := store.ListUsersByRole(ctx, h.DB, model.RoleEngineer)
		if err != nil {
			storeError(w, err, "dashboard engineers")
			return
		}
		requests, err := store.ListRequests(ctx, h.DB)
		if err != nil {
			storeError(w, err, "dashboard requests")
			return
		}
		inventory, err := store.ListAllPersonalStocks(ctx, h.DB)
		if err != nil {
			storeError(w, err, "dashboard inventory")
			return
		}
		usage, err := store.ListUsageRecords(ctx, h.DB)
		if err != nil {
			storeError(w, err, "dashboard usage")
			return
		}
		jsonResponse(w, http.StatusOK, hodDashboard{
			Stocks:    stocks,
			Engineers: orEmpty(engineers),
			Requests:  orEmpty(requests),
			Inventory: orEmpty(inventory),
			Usage:     orEmpty(usage),
		})
		return
	}

	requests, err := store.ListRequestsByEngineer(ctx, h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "dashboard requests")
		return
	}
	inventory, err := store.ListPersonalStocks(ctx, h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "dashboard inventory")
		return
	}
	usage, err := store.ListUsageRecordsByEngineer(ctx, h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "dashboard usage")
		return
	}
	jsonResponse(w, http.StatusOK, engineerDashboard{
		Stocks:    stocks,
		Requests:  orEmpty(requests),
		Inventory: orEmpty(inventory),
		Usage:     orEmpty(usage),
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
