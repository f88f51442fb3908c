package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
	api "finsight/pkg/contracts/api/v1"
)

// AuthHandler issues API access tokens
type AuthHandler struct {
	auth         *middleware.TokenAuthenticator
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *middleware.TokenAuthenticator, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "auth")),
		errorHandler: errorHandler,
	}
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.auth.Enabled() {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotImplemented,
			"AUTH_DISABLED",
			"Token issuance is not configured on this server",
		))
		return
	}

	var req api.TokenRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.IssueToken(req.Subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "token issuance failed",
			slog.String("subject", req.Subject),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "token issued", slog.String("subject", req.Subject))

	render.JSON(w, r, api.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.auth.Expiry().Seconds()),
	})
}
