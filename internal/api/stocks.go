package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mklavora/fieldstock/internal/imaging"
	"github.com/mklavora/fieldstock/internal/model"
	"github.com/mklavora/fieldstock/internal/store"
)

// StocksHandler handles central stock ledger endpoints.
type StocksHandler struct {
	DB *sql.DB
}

type createStockRequest struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	IsEmergency bool   `json:"is_emergency"`
}

type updateStockRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// List handles GET /api/stocks.
func (h *StocksHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := store.ListStocks(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list stocks")
		return
	}
	if stocks == nil {
		stocks = []model.Stock{}
	}
	jsonResponse(w, http.StatusOK, stocks)
}

// Create handles POST /api/stocks. Adding a name that already exists
// accumulates quantity rather than failing.
func (h *StocksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	stock, err := store.AddStock(r.Context(), h.DB, req.Name, req.Quantity, req.IsEmergency)
	if err != nil {
		storeError(w, err, "add stock")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("stock added", "user", claims.Username, "stock", stock.Name, "quantity", stock.Quantity)
	jsonResponse(w, http.StatusCreated, stock)
}

// Get handles GET /api/stocks/{id}.
func (h *StocksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	stock, err := store.GetStock(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get stock")
		return
	}
	if stock == nil {
		jsonError(w, http.StatusNotFound, "stock not found")
		return
	}

	jsonResponse(w, http.StatusOK, stock)
}

// Update handles PUT /api/stocks/{id}: direct field overwrite.
func (h *StocksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	var req updateStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	if err := store.UpdateStock(r.Context(), h.DB, id, req.Name, req.Quantity); err != nil {
		storeError(w, err, "update stock")
		return
	}

	stock, _ := store.GetStock(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, stock)
}

// Delete handles DELETE /api/stocks/{id}. Historical requests and usage
// records keep their references.
func (h *StocksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	if err := store.DeleteStock(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete stock")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("stock deleted", "user", claims.Username, "stock_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "stock deleted"})
}

// UploadPhoto handles PUT /api/stocks/{id}/photo.
func (h *StocksHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetStockPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "set stock photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/stocks/{id}/photo.
func (h *StocksHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	data, mime, err := store.GetStockPhoto(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get stock photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
