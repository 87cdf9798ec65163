package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mklavora/fieldstock/internal/model"
	"github.com/mklavora/fieldstock/internal/store"
)

// EngineersHandler handles engineer account management (HOD only).
type EngineersHandler struct {
	DB *sql.DB
}

type createEngineerRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type updateEngineerRequest struct {
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// List handles GET /api/engineers.
func (h *EngineersHandler) List(w http.ResponseWriter, r *http.Request) {
	engineers, err := store.ListUsersByRole(r.Context(), h.DB, model.RoleEngineer)
	if err != nil {
		storeError(w, err, "list engineers")
		return
	}
	if engineers == nil {
		engineers = []model.User{}
	}
	jsonResponse(w, http.StatusOK, engineers)
}

// Create handles POST /api/engineers.
func (h *EngineersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEngineerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	engineer, err := store.CreateUser(r.Context(), h.DB, req.Username, req.FullName, string(hash), model.RoleEngineer)
	if err != nil {
		storeError(w, err, "create engineer")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("engineer created", "user", claims.Username, "engineer", engineer.Username)
	jsonResponse(w, http.StatusCreated, engineer)
}

// Get handles GET /api/engineers/{id}.
func (h *EngineersHandler) Get(w http.ResponseWriter, r *http.Request) {
	engineer, ok := h.lookupEngineer(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, engineer)
}

// Update handles PUT /api/engineers/{id}: the HOD can change the display
// name and reset the password.
func (h *EngineersHandler) Update(w http.ResponseWriter, r *http.Request) {
	engineer, ok := h.lookupEngineer(w, r)
	if !ok {
		return
	}

	var req updateEngineerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName != "" {
		if err := store.UpdateUserFullName(r.Context(), h.DB, engineer.ID, req.FullName); err != nil {
			storeError(w, err, "update engineer")
			return
		}
	}

	if req.Password != "" {
		if err := model.ValidatePassword(req.Password); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := store.UpdateUserPassword(r.Context(), h.DB, engineer.ID, string(hash)); err != nil {
			storeError(w, err, "reset engineer password")
			return
		}
		claims := GetClaims(r.Context())
		slog.Info("engineer password reset", "user", claims.Username, "engineer", engineer.Username)
	}

	updated, _ := store.GetUser(r.Context(), h.DB, engineer.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/engineers/{id}.
func (h *EngineersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	engineer, ok := h.lookupEngineer(w, r)
	if !ok {
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, engineer.ID); err != nil {
		storeError(w, err, "delete engineer")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("engineer deleted", "user", claims.Username, "engineer", engineer.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "engineer deleted"})
}

// lookupEngineer resolves the {id} path value to an active engineer account,
// writing the error response itself when it can't. Accounts with other roles
// read as absent.
func (h *EngineersHandler) lookupEngineer(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid engineer id")
		return nil, false
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get engineer")
		return nil, false
	}
	if user == nil || user.DeletedAt != nil || user.Role != model.RoleEngineer {
		jsonError(w, http.StatusNotFound, "engineer not found")
		return nil, false
	}
	return user, true
}
