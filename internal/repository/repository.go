// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/medibook/auth-service/internal/model"
)

// AccountRepository is the credential store: account records keyed by id,
// email, active reset token, or Google subject id.
//
// Lookups return apperror.ErrNotFound-wrapping errors when no record
// matches; Create returns an apperror.ErrConflict-wrapping error on a
// duplicate email. The store serializes conflicting writes to the same
// record; no optimistic-concurrency detection happens at this layer.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Save(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByResetToken(ctx context.Context, token string) (*model.Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.Account, error)
}
