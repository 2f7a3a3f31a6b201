package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserStore is the slice of the credential store the identity provider needs.
type UserStore interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider resolves users from the credential store and verifies their
// credentials.
type UserProvider struct {
	store  UserStore
	logger Logger
}

var (
	_ IdentityProvider = (*UserProvider)(nil)
	_ LoginTracker     = (*UserProvider)(nil)
)

// NewUserProvider will create a new UserProvider.
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown identifier, wrong password, and inactive account are all
// reported as ErrInvalidCredentials; the distinction is logged, never
// surfaced, so callers cannot enumerate identifiers.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			u.logger.Debug("verify identity: unknown identifier", "identifier", identifier)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("verify identity: password mismatch", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		u.logger.Warn("verify identity: account inactive", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	return identityFromUser(user), nil
}

// FindIdentityByID re-resolves a token subject against the store. Unlike
// VerifyIdentity this path differentiates its failures: the caller already
// holds a cryptographically valid token, so there is no enumeration channel
// to protect.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user by id")
	}

	if !user.CanAuthenticate() {
		return nil, ErrUserInactive
	}

	return identityFromUser(user), nil
}

// TrackLogin stamps the user's last login time.
func (u *UserProvider) TrackLogin(ctx context.Context, identity Identity) error {
	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "identity id is not a valid uuid")
	}

	return u.store.TrackSuccessfulLogin(ctx, &User{ID: uid})
}

type authIdentity struct {
	id         string
	username   string
	email      string
	role       UserRole
	mustChange bool
}

var _ Identity = authIdentity{}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:         user.ID.String(),
		username:   user.Username,
		email:      user.Email,
		role:       user.Role,
		mustChange: user.MustChangePassword,
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() UserRole {
	return a.role
}

func (a authIdentity) MustChangePassword() bool {
	return a.mustChange
}
