package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type DeleteUserMessage struct {
	ID string `json:"id"`
}

func (e DeleteUserMessage) Type() string { return "user.delete" }

// DeleteUserHandler soft-deletes a user. The row is retained and the handle
// becomes reusable; the delete is irreversible through the public contract.
// The last-admin count runs in the deleting transaction so two concurrent
// deletes cannot both pass the check and leave the store with zero admins.
type DeleteUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewDeleteUserHandler(repo RepositoryManager) *DeleteUserHandler {
	return &DeleteUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *DeleteUserHandler) WithLogger(l Logger) *DeleteUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *DeleteUserHandler) Execute(ctx context.Context, event DeleteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deletion",
		)
	default:
		return h.run(ctx, event)
	}
}

func (h *DeleteUserHandler) run(ctx context.Context, event DeleteUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.ID)
		if err != nil {
			return notFoundAsUserError(err)
		}

		if user.Role == RoleAdmin && user.IsActive {
			remaining, err := h.repo.Users().CountActiveAdminsExcludingTx(ctx, tx, user.ID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count active admins")
			}
			if remaining == 0 {
				return ErrLastAdmin
			}
		}

		if err := h.repo.Users().SoftDeleteTx(ctx, tx, user.ID); err != nil {
			return notFoundAsUserError(err)
		}

		return nil
	})

	if err != nil {
		return passthroughError(err, "user deletion transaction failed")
	}

	return nil
}
