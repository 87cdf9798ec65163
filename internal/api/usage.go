package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/mklavora/fieldstock/internal/model"
	"github.com/mklavora/fieldstock/internal/store"
)

// UsageHandler handles personal inventory and usage log endpoints.
type UsageHandler struct {
	DB *sql.DB
}

type issueRequest struct {
	StockID      int64  `json:"stock_id"`
	Quantity     int    `json:"quantity"`
	SiteName     string `json:"site_name"`
	Reason       string `json:"reason"`
	ContractType string `json:"contract_type"`
}

// ListInventory handles GET /api/inventory: engineers see their own holdings,
// the HOD sees everyone's.
func (h *UsageHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var holdings []model.PersonalStock
	var err error
	if claims.Role == model.RoleHOD {
		holdings, err = store.ListAllPersonalStocks(r.Context(), h.DB)
	} else {
		holdings, err = store.ListPersonalStocks(r.Context(), h.DB, claims.UserID)
	}
	if err != nil {
		storeError(w, err, "list inventory")
		return
	}
	if holdings == nil {
		holdings = []model.PersonalStock{}
	}
	jsonResponse(w, http.StatusOK, holdings)
}

// Issue handles POST /api/usage: an engineer consumes stock from their
// holdings at a site.
func (h *UsageHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.StockID <= 0 || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "stock_id and a positive quantity required")
		return
	}

	claims := GetClaims(r.Context())
	record, err := store.IssueStock(r.Context(), h.DB, claims.UserID, req.StockID, req.Quantity, req.SiteName, req.Reason, req.ContractType)
	if err != nil {
		storeError(w, err, "issue stock")
		return
	}

	slog.Info("stock issued", "engineer", claims.Username,
		"stock", record.StockName, "quantity", record.Quantity, "site", record.SiteName)
	jsonResponse(w, http.StatusCreated, record)
}

// List handles GET /api/usage, scoped like the inventory listing.
func (h *UsageHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var records []model.UsageRecord
	var err error
	if claims.Role == model.RoleHOD {
		records, err = store.ListUsageRecords(r.Context(), h.DB)
	} else {
		records, err = store.ListUsageRecordsByEngineer(r.Context(), h.DB, claims.UserID)
	}
	if err != nil {
		storeError(w, err, "list usage")
		return
	}
	if records == nil {
		records = []model.UsageRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}
