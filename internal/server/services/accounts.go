// Package services contains server-side business logic. AccountService
// implements registration, email verification, login and the
// authenticated account operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/keys"
	"github.com/dmitrijs2005/accounts/internal/server/media"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/notify"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

// ReferralCodeAttempts bounds user inserts retried after a referral code
// collision.
const ReferralCodeAttempts = 3

// Registration step names, as logged and reported in SagaError.
const (
	StepUploadProfile    = "upload profile image"
	StepCreateUser       = "create user"
	StepCreateWallet     = "create wallet"
	StepEnsureWallet     = "ensure wallet"
	StepSignVerification = "sign verification token"
	StepSendVerification = "send verification email"
)

// Seams for tests.
var (
	newReferralCode = keys.NewReferralCode
	newSecretKey    = keys.NewSecretKey
	newWalletKey    = keys.NewWalletKey
)

type TokenSigner interface {
	Sign(userID string, purpose auth.Purpose) (string, error)
	Verify(token string, purpose auth.Purpose) (string, error)
}

type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	MobileNumber int64
	UserName     string
	Password     string
	ReferralCode string
	Profile      *media.Image
}

type AccountInput struct {
	FullName string
	Email    string
}

type VerifyResult struct {
	AlreadyVerified bool
}

type LoginResult struct {
	User  *models.User
	Token string
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      TokenSigner
	media       media.Store
	notifier    notify.Sender
	logger      logging.Logger
	bcryptCost  int
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, signer TokenSigner,
	store media.Store, notifier notify.Sender, cfg *config.Config, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		signer:      signer,
		media:       store,
		notifier:    notifier,
		logger:      logger.With("module", "accounts"),
		bcryptCost:  cfg.BcryptCost,
	}
}

// Register creates the user, its wallet, and sends the verification email.
// Failures after the user row exists are logged and returned as internal
// errors; the user is kept and can be fixed with RepairRegistration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalize(in.Email)
	userName := normalize(in.UserName)

	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if userName == "" {
		missing = append(missing, "userName")
	}
	if strings.TrimSpace(in.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, common.Validation("email, username and password are required", missing...)
	}

	userRepo := s.repomanager.Users(s.db)

	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil, common.Conflict("email", nil)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internalError(err)
	}

	user := &models.User{
		FirstName:    normalize(in.FirstName),
		LastName:     normalize(in.LastName),
		Email:        email,
		UserName:     userName,
		MobileNumber: in.MobileNumber,
		SecretKey:    newSecretKey(),
		ReferralCode: newReferralCode(userName),
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, internalError(err)
	}
	user.PasswordHash = hash

	if code := normalize(in.ReferralCode); code != "" {
		referrer, err := userRepo.GetByReferralCode(ctx, code)
		switch {
		case err == nil:
			user.ReferredBy = &referrer.ID
		case errors.Is(err, common.ErrorNotFound):
			s.logger.Debug(ctx, "referral code not found, ignoring", "referral_code", code)
		default:
			return nil, internalError(err)
		}
	}

	var token string
	var steps []Step
	if in.Profile != nil {
		steps = append(steps, s.uploadProfileStep(user, in.Profile))
	}
	steps = append(steps, Step{Name: StepCreateUser, Run: func(ctx context.Context) error { return s.createUser(ctx, user) }})
	steps = append(steps, Step{Name: StepCreateWallet, Run: func(ctx context.Context) error {
		_, err := s.repomanager.Wallets(s.db).Create(ctx, &models.Wallet{UserID: user.ID, WalletKey: newWalletKey()})
		return err
	}})
	steps = append(steps, s.verificationSteps(user, &token)...)

	if err := NewSaga("registration", s.logger, steps...).Run(ctx); err != nil {
		var se *SagaError
		if errors.As(err, &se) && se.Step == StepCreateUser {
			return nil, internalError(se.Err)
		}
		s.logger.Error(ctx, "registration incomplete", "user_id", user.ID, "email", user.Email, "step", stepOf(err), "error", err)
		return nil, common.NewError(common.ErrorInternal, "registration incomplete, please contact support", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// uploadProfileStep stores img for user. Upload failures are logged and the
// user registers without an image. The object is removed again only when
// the user row was never written; later failures keep the user and its image.
func (s *AccountService) uploadProfileStep(user *models.User, img *media.Image) Step {
	return Step{
		Name: StepUploadProfile,
		Run: func(ctx context.Context) error {
			obj, err := s.media.Upload(ctx, img)
			if err != nil {
				s.logger.Warn(ctx, "profile upload failed, registering without image", "email", user.Email, "error", err)
				return nil
			}
			user.ProfileURL, user.ProfileID = obj.URL, obj.ID
			return nil
		},
		Compensate: func(ctx context.Context) error {
			if user.ProfileID == "" || user.ID != "" {
				return nil
			}
			return s.media.Delete(ctx, user.ProfileID)
		},
	}
}

// createUser inserts user, regenerating the referral code when it collides.
func (s *AccountService) createUser(ctx context.Context, user *models.User) error {
	repo := s.repomanager.Users(s.db)
	for attempt := 1; ; attempt++ {
		_, err := repo.Create(ctx, user)
		if err == nil {
			return nil
		}
		field, ok := common.ConflictField(err)
		if !ok || field != "referral_code" || attempt >= ReferralCodeAttempts {
			return err
		}
		s.logger.Debug(ctx, "referral code collision, regenerating", "attempt", attempt)
		user.ReferralCode = newReferralCode(user.UserName)
	}
}

// verificationSteps signs a verification token for user into *token and
// mails it.
func (s *AccountService) verificationSteps(user *models.User, token *string) []Step {
	return []Step{
		{Name: StepSignVerification, Run: func(ctx context.Context) error {
			t, err := s.signer.Sign(user.ID, auth.PurposeEmailVerification)
			*token = t
			return err
		}},
		{Name: StepSendVerification, Run: func(ctx context.Context) error {
			return s.notifier.SendVerification(ctx, user.Email, *token)
		}},
	}
}

// VerifyEmail marks the token's user as verified. Verifying twice succeeds.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	userID, err := s.signer.Verify(token, auth.PurposeEmailVerification)
	if err != nil {
		s.logger.Debug(ctx, "verification token rejected", "error", err)
		return nil, tokenError(err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}

	if user.IsEmailVerified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}

	if err := repo.SetEmailVerified(ctx, user.ID); err != nil {
		return nil, lookupError(err, "user not found")
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return &VerifyResult{}, nil
}

// Login checks the credentials and account state and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalize(email)
	if email == "" {
		return nil, common.Validation("email is required", "email")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, "invalid credential")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, internalError(err)
	}
	if !ok {
		return nil, common.NewError(common.ErrorUnauthorized, "invalid credential", nil)
	}

	if !user.IsEmailVerified {
		return nil, common.NewError(common.ErrorForbidden, "please verify email first", common.ErrEmailNotVerified)
	}
	if !user.IsActivated {
		return nil, common.NewError(common.ErrorForbidden, "account not activated, complete payment or contact admin", common.ErrAccountNotActivated)
	}

	token, err := s.signer.Sign(user.ID, auth.PurposeSession)
	if err != nil {
		return nil, internalError(err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token}, nil
}

// ChangePassword replaces the password after checking the current one. The
// row is locked for the duration of the check and update.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" {
		return unauthenticated()
	}
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return common.Validation("old and new password are required")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return internalError(err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return lookupError(err, "user not found")
		}

		ok, err := auth.CheckPassword(user.PasswordHash, oldPassword)
		if err != nil {
			return internalError(err)
		}
		if !ok {
			return common.NewError(common.ErrorUnauthorized, "invalid old password", nil)
		}

		if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
			return lookupError(err, "user not found")
		}

		s.logger.Info(ctx, "password changed", "user_id", userID)
		return nil
	})
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}
	return user, nil
}

// UpdateAccount sets the display name and email. The name is split on its
// first space into first and last name.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, in AccountInput) (*models.User, error) {
	if userID == "" {
		return nil, unauthenticated()
	}

	fullName := strings.Join(strings.Fields(in.FullName), " ")
	email := normalize(in.Email)
	if fullName == "" || email == "" {
		return nil, common.Validation("full name and email are required")
	}

	first, last, _ := strings.Cut(strings.ToLower(fullName), " ")

	user, err := s.repomanager.Users(s.db).UpdateAccount(ctx, userID, first, last, email)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}

	s.logger.Info(ctx, "account updated", "user_id", userID)
	return user, nil
}

// UpdateProfileImage uploads img, points the user at it and then removes the
// previous image. Failing to remove the old image is only logged.
func (s *AccountService) UpdateProfileImage(ctx context.Context, userID string, img *media.Image) (*models.User, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, common.Validation("profile image is required", "profile")
	}
	if userID == "" {
		return nil, unauthenticated()
	}

	repo := s.repomanager.Users(s.db)
	current, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}

	obj, err := s.media.Upload(ctx, img)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, common.NewError(common.ErrorInternal, "error while uploading profile image", err)
	}

	user, err := repo.UpdateProfile(ctx, userID, obj.URL, obj.ID)
	if err != nil {
		if derr := s.media.Delete(ctx, obj.ID); derr != nil {
			s.logger.Warn(ctx, "new profile image not deleted", "user_id", userID, "profile_id", obj.ID, "error", derr)
		}
		return nil, lookupError(err, "user not found")
	}

	if current.ProfileID != "" {
		if err := s.media.Delete(ctx, current.ProfileID); err != nil {
			s.logger.Warn(ctx, "old profile image not deleted", "user_id", userID, "profile_id", current.ProfileID, "error", err)
		}
	}

	s.logger.Info(ctx, "profile image updated", "user_id", userID)
	return user, nil
}
