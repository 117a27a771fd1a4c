package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/geocoder89/userdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type AccountReader interface {
	GetByEmail(ctx context.Context, email string) (user.Account, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, email, role string) (string, error)
}

type AuthHandler struct {
	accounts AccountReader
	tokens   TokenIssuer
}

func NewAuthHandler(accounts AccountReader, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

// Login checks the credentials and answers {token, user}.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	acct, err := h.accounts.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}
		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := security.CheckPassword(acct.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.tokens.GenerateAccessToken(acct.ID, acct.Email, acct.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	u := acct.User
	ctx.JSON(http.StatusOK, user.LoginResponse{Token: token, User: &u})
}
