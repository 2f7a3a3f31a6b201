package identity_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func newTestConfig() identity.SimpleConfig {
	return identity.SimpleConfig{
		SigningKey:      "test-signing-key",
		TokenExpiration: 1,
		Issuer:          "test-issuer",
		Audience:        []string{"test-audience"},
	}
}

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

// TestIdentity is a plain value implementation of identity.Identity.
type TestIdentity struct {
	id         string
	username   string
	email      string
	role       identity.UserRole
	mustChange bool
}

func (t TestIdentity) ID() string               { return t.id }
func (t TestIdentity) Username() string         { return t.username }
func (t TestIdentity) Email() string            { return t.email }
func (t TestIdentity) Role() identity.UserRole  { return t.role }
func (t TestIdentity) MustChangePassword() bool { return t.mustChange }

// MockIdentityProvider implements identity.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (identity.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if ident, ok := args.Get(0).(identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (identity.Identity, error) {
	args := m.Called(ctx, id)
	if ident, ok := args.Get(0).(identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTrackingProvider also implements identity.LoginTracker
type MockTrackingProvider struct {
	MockIdentityProvider
}

func (m *MockTrackingProvider) TrackLogin(ctx context.Context, ident identity.Identity) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

// MockUserStore implements identity.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, id, criteria)
	return userResult(args)
}

func (m *MockUserStore) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, identifier, criteria)
	return userResult(args)
}

func (m *MockUserStore) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepositoryManager implements identity.RepositoryManager. RunInTx runs
// the given closure with a zero transaction and propagates its error unless
// the expectation returns one first.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() identity.Users {
	args := m.Called()
	return args.Get(0).(identity.Users)
}

// MockUsers implements identity.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, id, criteria)
	return userResult(args)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, identifier, criteria)
	return userResult(args)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, identifier, criteria)
	return userResult(args)
}

func (m *MockUsers) Create(ctx context.Context, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, record, criteria)
	return userResult(args)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	return userResult(args)
}

func (m *MockUsers) Update(ctx context.Context, record *identity.User, criteria ...repository.UpdateCriteria) (*identity.User, error) {
	args := m.Called(ctx, record, criteria)
	return userResult(args)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.UpdateCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	return userResult(args)
}

func (m *MockUsers) RawTx(ctx context.Context, tx bun.IDB, sql string, sqlArgs ...any) ([]*identity.User, error) {
	args := m.Called(ctx, tx, sql, sqlArgs)
	if users, ok := args.Get(0).([]*identity.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int, error) {
	args := m.Called(ctx, filter)
	if users, ok := args.Get(0).([]*identity.User); ok {
		return users, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockUsers) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) CountAllUsersTx(ctx context.Context, tx bun.IDB) (int, error) {
	args := m.Called(ctx, tx)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) CountActiveAdminsExcluding(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) CountActiveAdminsExcludingTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

var (
	_ identity.Users             = (*MockUsers)(nil)
	_ identity.RepositoryManager = (*MockRepositoryManager)(nil)
	_ identity.UserStore         = (*MockUserStore)(nil)
	_ identity.IdentityProvider  = (*MockIdentityProvider)(nil)
	_ identity.LoginTracker      = (*MockTrackingProvider)(nil)
)

func userResult(args mock.Arguments) (*identity.User, error) {
	if user, ok := args.Get(0).(*identity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// managerWith wires a MockRepositoryManager to a MockUsers with a permissive
// transaction expectation.
func managerWith(users *MockUsers) *MockRepositoryManager {
	repo := &MockRepositoryManager{}
	repo.On("Users").Return(users).Maybe()
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Maybe()
	return repo
}
