package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/pipeline"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/phrazzld/library-api/internal/store"
)

// invalidCredentials is returned for both unknown users and wrong
// passwords so the response does not reveal which one it was. It matches
// domain.ErrInvalidCredentials.
func invalidCredentials() error {
	return domain.NewAuthenticationError(domain.ReasonInvalidCredentials, "invalid credentials", nil)
}

// AccountHandler handles the login flow.
type AccountHandler struct {
	tokens           auth.TokenService
	passwordVerifier auth.PasswordVerifier
	timeFunc         func() time.Time
	logger           *slog.Logger
}

// NewAccountHandler creates a new AccountHandler with the given dependencies.
func NewAccountHandler(
	tokens auth.TokenService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		tokens:           tokens,
		passwordVerifier: passwordVerifier,
		timeFunc:         time.Now,
		logger:           logger.With(slog.String("component", "account_handler")),
	}
}

// Login verifies the username and password and issues a bearer token for
// the user's ID and role names. A successful login is recorded on the user.
func (h *AccountHandler) Login(req *pipeline.Request) (*pipeline.Response, error) {
	var body LoginRequest
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	ctx := req.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	user, err := req.Repos.Users().GetByUsername(ctx, body.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login rejected: unknown user")
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := h.passwordVerifier.Compare(user.PasswordHash, body.Password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			log.Debug("login rejected: wrong password", slog.String("user_id", user.ID.String()))
			return nil, invalidCredentials()
		}
		return nil, err
	}

	token, err := h.tokens.IssueToken(ctx, user.ID.String(), user.RoleNames())
	if err != nil {
		return nil, err
	}

	user.RecordLogin(h.timeFunc())
	if err := req.Repos.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return pipeline.JSON(http.StatusOK, LoginResponse{Token: token.Value, Expiry: token.ExpiresAt})
}
