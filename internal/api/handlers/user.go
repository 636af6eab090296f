package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/minimart/minimart/internal/api/middleware"
	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/utils"
	"github.com/minimart/minimart/internal/utils/response"
)

type UserHandler struct {
	users     *service.UserService
	validator *validator.Validate
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users, validator: validator.New()}
}

func (h *UserHandler) Signup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.SignupRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if err := h.users.Signup(r.Context(), &req); err != nil {
			logger.Warn("Signup failed", slog.String("username", req.Username), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("User signed up", slog.String("username", req.Username))
		response.WriteJson(w, http.StatusCreated, map[string]string{"message": "Signup successful"})
	}
}

func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		session, err := h.users.Login(r.Context(), &req)
		if err != nil {
			logger.Warn("Login failed", slog.String("username", req.Username))
			response.Error(w, err)

			return
		}

		logger.Info("User logged in", slog.String("username", session.Username))
		response.WriteJson(w, http.StatusOK, session)
	}
}

// Me returns the identity the bearer token resolves to. Anonymous
// requests get a 401; this is the one route where the fallback identity
// is not good enough.
func (h *UserHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity := middleware.IdentityFromContext(r.Context())

		if identity.Anonymous {
			response.Error(w, errors.InvalidCredentialsError("A valid session token is required"))

			return
		}

		response.WriteJson(w, http.StatusOK, models.User{
			Username: identity.Username,
			Role:     identity.Role,
		})
	}
}
