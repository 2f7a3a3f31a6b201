package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// UpdateUserMessage carries a partial update; nil fields are left untouched.
type UpdateUserMessage struct {
	ID       string    `json:"id"`
	Email    *string   `json:"email,omitempty"`
	FullName *string   `json:"full_name,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

func (e UpdateUserMessage) Type() string { return "user.update" }

// UpdateUserHandler applies partial updates to a user record. Demoting or
// deactivating the last active admin is rejected inside the update
// transaction, before any mutation.
type UpdateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewUpdateUserHandler(repo RepositoryManager) *UpdateUserHandler {
	return &UpdateUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *UpdateUserHandler) WithLogger(l Logger) *UpdateUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		_, err := h.Run(ctx, event)
		return err
	}
}

func (h *UpdateUserHandler) Run(ctx context.Context, event UpdateUserMessage) (*User, error) {
	if event.Email != nil {
		if err := ValidateEmail(*event.Email); err != nil {
			return nil, err
		}
	}
	if event.Role != nil && !event.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var updated *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.ID)
		if err != nil {
			return notFoundAsUserError(err)
		}

		if event.Email != nil && *event.Email != user.Email {
			if err := ensureIdentifiersFreeTx(ctx, tx, h.repo.Users(), user.ID, *event.Email); err != nil {
				return err
			}
			user.Email = *event.Email
		}

		if event.FullName != nil {
			user.FullName = *event.FullName
		}

		demotes := event.Role != nil && *event.Role != RoleAdmin && user.Role == RoleAdmin
		deactivates := event.IsActive != nil && !*event.IsActive && user.IsActive

		if (demotes || deactivates) && user.Role == RoleAdmin && user.IsActive {
			remaining, err := h.repo.Users().CountActiveAdminsExcludingTx(ctx, tx, user.ID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count active admins")
			}
			if remaining == 0 {
				return ErrLastAdmin
			}
		}

		if event.Role != nil {
			user.Role = *event.Role
		}
		if event.IsActive != nil {
			user.IsActive = *event.IsActive
		}

		now := time.Now()
		user.UpdatedAt = &now

		if updated, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
		}

		return nil
	})

	if err != nil {
		return nil, passthroughError(err, "user update transaction failed")
	}

	return updated, nil
}
