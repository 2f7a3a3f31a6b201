package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Default admin credentials seeded into an empty store. The account is
// created with must_change_password set, so the documented password only
// works until the first login completes a change.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "Admin@123"
	DefaultAdminFullName = "System Administrator"
)

// EnsureDefaultAdmin seeds the default admin account when the store holds no
// users at all, deleted ones included. It is safe to call on every startup:
// once any user exists, including a soft-deleted one, it does nothing. The
// emptiness check and the insert share one transaction so concurrent starters
// cannot both seed.
func EnsureDefaultAdmin(ctx context.Context, repo RepositoryManager) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var seeded *User
	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		total, err := repo.Users().CountAllUsersTx(ctx, tx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count users")
		}

		if total > 0 {
			return nil
		}

		hash, err := HashPassword(DefaultAdminPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		admin := &User{
			Email:              DefaultAdminEmail,
			Username:           DefaultAdminUsername,
			FullName:           DefaultAdminFullName,
			Role:               RoleAdmin,
			PasswordHash:       hash,
			IsActive:           true,
			MustChangePassword: true,
		}

		if seeded, err = repo.Users().CreateTx(ctx, tx, admin); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not seed default admin")
		}

		return nil
	})

	if err != nil {
		return nil, passthroughError(err, "default admin bootstrap failed")
	}

	return seeded, nil
}
