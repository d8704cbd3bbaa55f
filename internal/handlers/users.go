package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
	"github.com/sbilibin2017/gw-storefront/internal/services"
)

// UserProvider defines the interface that the users service must implement.
type UserProvider interface {
	List(ctx context.Context) ([]models.UserDB, error)
	Get(ctx context.Context, id int64) (*models.UserDB, error)
	Delete(ctx context.Context, id int64) error
}

// UserErrorResponse represents an error response for the users resource
// swagger:model UserErrorResponse
type UserErrorResponse struct {
	// Error message
	// example: User not found
	Error string `json:"error"`
}

// NewListUsersHandler returns an HTTP handler listing all users.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.UserDB
// @Failure 401 {object} handlers.UserErrorResponse "Unauthorized"
// @Router /users [get]
// @Security BearerAuth
func NewListUsersHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("failed to list users", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(UserErrorResponse{Error: "Internal server error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(users)
	}
}

// NewGetUserHandler returns an HTTP handler fetching one user by id.
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserDB
// @Failure 400 {object} handlers.UserErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.UserErrorResponse "User not found"
// @Router /users/{id} [get]
// @Security BearerAuth
func NewGetUserHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(UserErrorResponse{Error: "Invalid ID format"})
			return
		}

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			switch err {
			case services.ErrUserNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(UserErrorResponse{Error: "User not found"})
			default:
				logger.Log.Errorw("failed to get user", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(UserErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}

// NewDeleteUserHandler returns an HTTP handler removing one user by id.
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 400 {object} handlers.UserErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.UserErrorResponse "User not found"
// @Router /users/{id} [delete]
// @Security BearerAuth
func NewDeleteUserHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(UserErrorResponse{Error: "Invalid ID format"})
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			switch err {
			case services.ErrUserNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(UserErrorResponse{Error: "User not found"})
			default:
				logger.Log.Errorw("failed to delete user", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(UserErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
