package identity

import (
	"context"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// The admin mutations are modeled as command messages with dedicated
// handlers. Each handler runs its probes and its write inside one store
// transaction so the check-then-act sequences (identifier uniqueness, the
// last-admin count) cannot interleave with a concurrent admin operation.
var (
	_ command.Commander[CreateUserMessage]     = (*CreateUserHandler)(nil)
	_ command.Commander[UpdateUserMessage]     = (*UpdateUserHandler)(nil)
	_ command.Commander[ResetPasswordMessage]  = (*ResetPasswordHandler)(nil)
	_ command.Commander[DeleteUserMessage]     = (*DeleteUserHandler)(nil)
	_ command.Commander[ChangePasswordMessage] = (*ChangePasswordHandler)(nil)
)

// ensureIdentifiersFreeTx probes username and email against non-deleted rows
// inside the caller's transaction. Records matching the excluded id do not
// count as collisions, which lets updates keep their own identifiers.
func ensureIdentifiersFreeTx(ctx context.Context, tx bun.IDB, users Users, excluding uuid.UUID, identifiers ...string) error {
	for _, identifier := range identifiers {
		if identifier == "" {
			continue
		}

		existing, err := users.GetByIdentifierTx(ctx, tx, identifier)
		if err != nil {
			if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
				continue
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing identifiers")
		}

		if existing.ID != excluding {
			return ErrDuplicateIdentifier
		}
	}

	return nil
}

// passthroughError keeps structured errors intact and wraps everything else.
func passthroughError(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// notFoundAsUserError maps repository not-found results to ErrUserNotFound.
func notFoundAsUserError(err error) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return ErrUserNotFound
	}
	return err
}
