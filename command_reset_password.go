package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	ID          string `json:"id"`
	NewPassword string `json:"new_password"`
}

func (e ResetPasswordMessage) Type() string { return "user.password.reset" }

// ResetPasswordHandler is the admin-initiated password swap. It does not ask
// for the old secret and always forces a change on the user's next login.
type ResetPasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewResetPasswordHandler(repo RepositoryManager) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ResetPasswordHandler) WithLogger(l Logger) *ResetPasswordHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.run(ctx, event)
	}
}

func (h *ResetPasswordHandler) run(ctx context.Context, event ResetPasswordMessage) error {
	if err := ValidatePassword(event.NewPassword); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.ID)
		if err != nil {
			return notFoundAsUserError(err)
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return notFoundAsUserError(err)
		}

		return nil
	})

	if err != nil {
		return passthroughError(err, "password reset transaction failed")
	}

	return nil
}
