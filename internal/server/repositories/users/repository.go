// Package users persists account records.
package users

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// Repository is the account store. Lookups return common.ErrorNotFound when
// no row matches; writes that break a unique index return a
// common.Conflict error naming the field.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateAccount(ctx context.Context, id, firstName, lastName, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, profileURL, profileID string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	SetActivated(ctx context.Context, id string, active bool) (*models.User, error)
}
