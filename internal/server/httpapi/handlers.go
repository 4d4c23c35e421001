// Package httpapi exposes the account service over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/media"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/services"
)

// ProfileField is the multipart field carrying profile images.
const ProfileField = "profile"

// Accounts is the service surface served by the handlers.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (*services.VerifyResult, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
	UpdateAccount(ctx context.Context, userID string, in services.AccountInput) (*models.User, error)
	UpdateProfileImage(ctx context.Context, userID string, img *media.Image) (*models.User, error)
}

type Handler struct {
	accounts       Accounts
	maxUploadBytes int64
}

func NewHandler(accounts Accounts, maxUploadBytes int64) *Handler {
	return &Handler{accounts: accounts, maxUploadBytes: maxUploadBytes}
}

type registerRequest struct {
	FirstName    string `json:"firstName" form:"firstName"`
	LastName     string `json:"lastName" form:"lastName"`
	Email        string `json:"email" form:"email"`
	MobileNumber int64  `json:"mobileNumber" form:"mobileNumber"`
	UserName     string `json:"userName" form:"userName"`
	Password     string `json:"password" form:"password"`
	ReferralCode string `json:"referralCode" form:"referralCode"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type loginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func badBody(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.NewError(common.ErrorValidation, "profile image is too large", err)
	}
	return common.NewError(common.ErrorValidation, "invalid request body", err)
}

// Register accepts JSON or a multipart form with an optional profile file.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, badBody(err))
		return
	}

	profile, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		UserName:     req.UserName,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
		Profile:      profile,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully, please verify your email", user)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, common.Validation("token is required", "token"))
		return
	}

	res, err := h.accounts.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	if res.AlreadyVerified {
		respond(c, http.StatusOK, "Email is already verified", nil)
		return
	}
	respond(c, http.StatusOK, "Email successfully verified", nil)
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}

	if err := h.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Verification email sent", nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "User logged in successfully", loginResponse{User: res.User, Token: res.Token})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), UserIDFromContext(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, err := h.accounts.CurrentUser(c.Request.Context(), UserIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Current user fetched successfully", user)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}

	user, err := h.accounts.UpdateAccount(c.Request.Context(), UserIDFromContext(c),
		services.AccountInput{FullName: req.FullName, Email: req.Email})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Account details updated successfully", user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	img, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.accounts.UpdateProfileImage(c.Request.Context(), UserIDFromContext(c), img)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile image updated successfully", user)
}

func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{"status": "ok"})
}

// readUpload returns the profile file of a multipart request, or nil when
// the request carries none.
func (h *Handler) readUpload(c *gin.Context) (*media.Image, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}

	fh, err := c.FormFile(ProfileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, badBody(err)
	}

	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return nil, common.Validation("profile image is too large", ProfileField)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, badBody(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, badBody(fmt.Errorf("read upload: %w", err))
	}

	return &media.Image{Filename: fh.Filename, Data: data}, nil
}
