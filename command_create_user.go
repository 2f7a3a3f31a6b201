package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type CreateUserMessage struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	Password string   `json:"password"`
}

func (e CreateUserMessage) Type() string { return "user.create" }

// CreateUserHandler provisions a new user. The record always starts with
// must_change_password set so the initial password is a handover secret, not
// a durable one.
type CreateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewCreateUserHandler(repo RepositoryManager) *CreateUserHandler {
	return &CreateUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *CreateUserHandler) WithLogger(l Logger) *CreateUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		_, err := h.Run(ctx, event)
		return err
	}
}

// Run validates the message, then probes for identifier collisions and
// inserts the record in a single transaction.
func (h *CreateUserHandler) Run(ctx context.Context, event CreateUserMessage) (*User, error) {
	if err := ValidateUsername(event.Username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(event.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(event.Password); err != nil {
		return nil, err
	}

	role := event.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	username := NormalizeUsername(event.Username)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureIdentifiersFreeTx(ctx, tx, h.repo.Users(), user.ID, username, event.Email); err != nil {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = event.Email
		user.Username = username
		user.FullName = event.FullName
		user.Role = role
		user.PasswordHash = hash
		user.IsActive = true
		user.MustChangePassword = true

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		return nil, passthroughError(err, "user creation transaction failed")
	}

	return user, nil
}
