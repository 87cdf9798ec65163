package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mklavora/fieldstock/internal/model"
	"github.com/mklavora/fieldstock/internal/store"
)

// RequestsHandler handles the request lifecycle endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestRequest struct {
	StockID       *int64 `json:"stock_id"`
	EmergencyText string `json:"emergency_text"`
	Quantity      int    `json:"quantity"`
	Remarks       string `json:"remarks"`
}

type actionRequest struct {
	Comment string `json:"comment"`
}

type dispatchRequest struct {
	DocketNumber string `json:"docket_number"`
	Comment      string `json:"comment"`
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.EmergencyText = strings.TrimSpace(req.EmergencyText)
	if req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	if (req.StockID == nil) == (req.EmergencyText == "") {
		jsonError(w, http.StatusBadRequest, "exactly one of stock_id and emergency_text must be set")
		return
	}

	claims := GetClaims(r.Context())
	request, err := store.CreateRequest(r.Context(), h.DB, claims.UserID, req.StockID, req.EmergencyText, req.Quantity, req.Remarks)
	if err != nil {
		storeError(w, err, "create request")
		return
	}

	slog.Info("request created", "engineer", claims.Username, "request_id", request.ID, "quantity", request.Quantity)
	jsonResponse(w, http.StatusCreated, request)
}

// List handles GET /api/requests: the HOD sees every request, an engineer
// sees only their own.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var requests []model.Request
	var err error
	if claims.Role == model.RoleHOD {
		requests, err = store.ListRequests(r.Context(), h.DB)
	} else {
		requests, err = store.ListRequestsByEngineer(r.Context(), h.DB, claims.UserID)
	}
	if err != nil {
		storeError(w, err, "list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}, scoped like List.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get request")
		return
	}

	claims := GetClaims(r.Context())
	if request == nil || (claims.Role != model.RoleHOD && request.EngineerID != claims.UserID) {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}

	jsonResponse(w, http.StatusOK, request)
}

// Approve handles POST /api/requests/{id}/approve. For ledger-referenced
// requests the central stock is decremented in the same transaction; if it
// can't cover the quantity the request stays pending.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.ApproveRequest(r.Context(), h.DB, id, req.Comment); err != nil {
		storeError(w, err, "approve request")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("request approved", "user", claims.Username, "request_id", id)
	h.respondWithRequest(w, r, id)
}

// Deny handles POST /api/requests/{id}/deny.
func (h *RequestsHandler) Deny(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.DenyRequest(r.Context(), h.DB, id, req.Comment); err != nil {
		storeError(w, err, "deny request")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("request denied", "user", claims.Username, "request_id", id)
	h.respondWithRequest(w, r, id)
}

// Dispatch handles POST /api/requests/{id}/dispatch. A docket number is
// required.
func (h *RequestsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	var req dispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.DocketNumber = strings.TrimSpace(req.DocketNumber)
	if req.DocketNumber == "" {
		jsonError(w, http.StatusBadRequest, "docket number required")
		return
	}

	if err := store.DispatchRequest(r.Context(), h.DB, id, req.DocketNumber, req.Comment); err != nil {
		storeError(w, err, "dispatch request")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("request dispatched", "user", claims.Username, "request_id", id, "docket", req.DocketNumber)
	h.respondWithRequest(w, r, id)
}

// Receive handles POST /api/requests/{id}/receive: the owning engineer marks
// a dispatched request as arrived, crediting their personal stock.
func (h *RequestsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := store.ReceiveRequest(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err, "receive request")
		return
	}

	slog.Info("request received", "engineer", claims.Username, "request_id", id)
	h.respondWithRequest(w, r, id)
}

// Cancel handles DELETE /api/requests/{id}: the owning engineer removes a
// pending or denied request.
func (h *RequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := store.CancelRequest(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err, "cancel request")
		return
	}

	slog.Info("request cancelled", "engineer", claims.Username, "request_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "request cancelled"})
}

func (h *RequestsHandler) respondWithRequest(w http.ResponseWriter, r *http.Request, id int64) {
	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil || request == nil {
		jsonResponse(w, http.StatusOK, map[string]string{"message": "request updated"})
		return
	}
	jsonResponse(w, http.StatusOK, request)
}

func requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return 0, false
	}
	return id, true
}
