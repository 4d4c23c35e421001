package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/media"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/services"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

// fakeAccounts records the last call and returns the configured results.
type fakeAccounts struct {
	user    *models.User
	token   string
	already bool
	err     error

	gotRegister services.RegisterInput
	gotToken    string
	gotEmail    string
	gotPassword string
	gotUserID   string
	gotOld      string
	gotNew      string
	gotAccount  services.AccountInput
	gotImage    *media.Image
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	f.gotRegister = in
	return f.user, f.err
}

func (f *fakeAccounts) VerifyEmail(_ context.Context, token string) (*services.VerifyResult, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return &services.VerifyResult{AlreadyVerified: f.already}, nil
}

func (f *fakeAccounts) ResendVerification(_ context.Context, email string) error {
	f.gotEmail = email
	return f.err
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	f.gotEmail, f.gotPassword = email, password
	if f.err != nil {
		return nil, f.err
	}
	return &services.LoginResult{User: f.user, Token: f.token}, nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, userID, oldPassword, newPassword string) error {
	f.gotUserID, f.gotOld, f.gotNew = userID, oldPassword, newPassword
	return f.err
}

func (f *fakeAccounts) CurrentUser(_ context.Context, userID string) (*models.User, error) {
	f.gotUserID = userID
	return f.user, f.err
}

func (f *fakeAccounts) UpdateAccount(_ context.Context, userID string, in services.AccountInput) (*models.User, error) {
	f.gotUserID, f.gotAccount = userID, in
	return f.user, f.err
}

func (f *fakeAccounts) UpdateProfileImage(_ context.Context, userID string, img *media.Image) (*models.User, error) {
	f.gotUserID, f.gotImage = userID, img
	return f.user, f.err
}

func newTestRouter(t *testing.T, accounts Accounts) (*gin.Engine, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer := auth.NewSigner([]byte("test-secret"), "accounts", time.Hour)
	return NewRouter(NewHandler(accounts, 1<<20), signer, nopLogger{}), signer
}
