package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Admin is the user-administration surface. Every operation first checks that
// the acting identity carries the admin role; the check happens here, at the
// boundary, so the command handlers stay reusable for bootstrap and tooling.
type Admin struct {
	guard  *Guard
	repo   RepositoryManager
	create *CreateUserHandler
	update *UpdateUserHandler
	reset  *ResetPasswordHandler
	remove *DeleteUserHandler
	logger Logger
}

func NewAdmin(guard *Guard, repo RepositoryManager) *Admin {
	return &Admin{
		guard:  guard,
		repo:   repo,
		create: NewCreateUserHandler(repo),
		update: NewUpdateUserHandler(repo),
		reset:  NewResetPasswordHandler(repo),
		remove: NewDeleteUserHandler(repo),
		logger: defLogger{},
	}
}

func (a *Admin) WithLogger(logger Logger) *Admin {
	if logger != nil {
		a.logger = logger
		a.create.WithLogger(logger)
		a.update.WithLogger(logger)
		a.reset.WithLogger(logger)
		a.remove.WithLogger(logger)
	}
	return a
}

// CreateUser provisions a new account and returns its public view. The
// account comes back active with must_change_password set.
func (a *Admin) CreateUser(ctx context.Context, actor Identity, event CreateUserMessage) (*PublicUser, error) {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := a.create.Run(ctx, event)
	if err != nil {
		return nil, err
	}

	a.logger.Info("admin created user", "actor_id", actor.ID(), "user_id", user.ID)

	return user.Public(), nil
}

// UpdateUser applies a partial update and returns the updated public view.
func (a *Admin) UpdateUser(ctx context.Context, actor Identity, event UpdateUserMessage) (*PublicUser, error) {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := a.update.Run(ctx, event)
	if err != nil {
		return nil, err
	}

	a.logger.Info("admin updated user", "actor_id", actor.ID(), "user_id", user.ID)

	return user.Public(), nil
}

// ResetPassword swaps a user's secret without knowing the old one and forces
// a change on their next login.
func (a *Admin) ResetPassword(ctx context.Context, actor Identity, event ResetPasswordMessage) error {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return err
	}

	if err := a.reset.Execute(ctx, event); err != nil {
		return err
	}

	a.logger.Info("admin reset password", "actor_id", actor.ID(), "user_id", event.ID)

	return nil
}

// DeleteUser soft-deletes an account. Removing the last active admin is
// rejected with ErrLastAdmin.
func (a *Admin) DeleteUser(ctx context.Context, actor Identity, event DeleteUserMessage) error {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return err
	}

	if err := a.remove.Execute(ctx, event); err != nil {
		return err
	}

	a.logger.Info("admin deleted user", "actor_id", actor.ID(), "user_id", event.ID)

	return nil
}

// GetUser fetches a single user by id, username, or email.
func (a *Admin) GetUser(ctx context.Context, actor Identity, identifier string) (*PublicUser, error) {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := a.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, notFoundAsUserError(err)
	}

	return user.Public(), nil
}

// ListUsers returns a page of users plus the total the filter matches.
func (a *Admin) ListUsers(ctx context.Context, actor Identity, filter UserFilter) ([]*PublicUser, int, error) {
	if err := a.guard.RequireAdmin(actor); err != nil {
		return nil, 0, err
	}

	records, total, err := a.repo.Users().List(ctx, filter)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list users")
	}

	out := make([]*PublicUser, 0, len(records))
	for _, record := range records {
		out = append(out, record.Public())
	}

	return out, total, nil
}
