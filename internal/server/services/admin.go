package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// RepairReport describes what RepairRegistration had to do.
type RepairReport struct {
	UserID           string
	WalletCreated    bool
	VerificationSent bool
}

func (s *AccountService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalize(email)
	if email == "" {
		return nil, common.Validation("email is required", "email")
	}
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}
	return user, nil
}

// FindUser looks a user up by email.
func (s *AccountService) FindUser(ctx context.Context, email string) (*models.User, error) {
	return s.userByEmail(ctx, email)
}

// ActivateAccount sets or clears the activation flag.
func (s *AccountService) ActivateAccount(ctx context.Context, email string, active bool) (*models.User, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	updated, err := s.repomanager.Users(s.db).SetActivated(ctx, user.ID, active)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}

	s.logger.Info(ctx, "account activation changed", "user_id", user.ID, "active", active)
	return updated, nil
}

// RepairRegistration completes a registration that stopped after the user
// row was written: it creates the wallet when missing and, for unverified
// users, sends a fresh verification email. Running it again is harmless.
func (s *AccountService) RepairRegistration(ctx context.Context, email string) (*RepairReport, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{UserID: user.ID}

	steps := []Step{{Name: StepEnsureWallet, Run: func(ctx context.Context) error {
		created, err := s.ensureWallet(ctx, user.ID)
		report.WalletCreated = created
		return err
	}}}

	var token string
	if !user.IsEmailVerified {
		steps = append(steps, s.verificationSteps(user, &token)...)
	}

	if err := NewSaga("repair", s.logger, steps...).Run(ctx); err != nil {
		s.logger.Error(ctx, "registration repair failed", "user_id", user.ID, "email", user.Email, "step", stepOf(err), "error", err)
		return report, common.NewError(common.ErrorInternal, "registration repair failed", err)
	}

	report.VerificationSent = !user.IsEmailVerified
	s.logger.Info(ctx, "registration repaired", "user_id", user.ID,
		"wallet_created", report.WalletCreated, "verification_sent", report.VerificationSent)
	return report, nil
}

func (s *AccountService) ensureWallet(ctx context.Context, userID string) (bool, error) {
	repo := s.repomanager.Wallets(s.db)

	_, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, err
	}

	_, err = repo.Create(ctx, &models.Wallet{UserID: userID, WalletKey: newWalletKey()})
	if field, ok := common.ConflictField(err); ok && field == "user_id" {
		return false, nil
	}
	return err == nil, err
}

// ResendVerification mails a new verification link. It does nothing for
// verified users.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return nil
	}

	token, err := s.signer.Sign(user.ID, auth.PurposeEmailVerification)
	if err != nil {
		return internalError(err)
	}
	if err := s.notifier.SendVerification(ctx, user.Email, token); err != nil {
		s.logger.Error(ctx, "verification email not sent", "user_id", user.ID, "email", user.Email, "error", err)
		return common.NewError(common.ErrorInternal, "verification email could not be sent", err)
	}

	s.logger.Info(ctx, "verification email resent", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password without checking the old one.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return common.Validation("new password is required", "password")
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return internalError(err)
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return lookupError(err, "user not found")
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}
