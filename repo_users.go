package identity

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetUserPasswordSQL swaps the digest and forces a password change on next
// login. Used by the admin reset flow.
var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"must_change_password" = TRUE,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ChangeUserPasswordSQL swaps the digest and clears the must-change flag.
// Used by the voluntary change flow.
var ChangeUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"must_change_password" = FALSE,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// SoftDeleteUserSQL marks a record deleted and inactive. The row is retained;
// the handle becomes reusable because lookups exclude deleted rows.
var SoftDeleteUserSQL = `UPDATE "users" AS "usr"
SET
	"deleted_at" = ?,
	"is_active" = FALSE,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

const (
	// DefaultPageSize is used when a list filter does not set one.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// UserFilter narrows and pages List results.
type UserFilter struct {
	Role     *UserRole
	IsActive *bool
	Page     int
	PerPage  int
}

func (f UserFilter) limitOffset() (int, int) {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}

	return perPage, (page - 1) * perPage
}

// Users is the credential store. All lookups exclude soft-deleted rows.
type Users interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]*User, error)

	List(ctx context.Context, filter UserFilter) ([]*User, int, error)
	CountUsers(ctx context.Context) (int, error)
	CountAllUsersTx(ctx context.Context, tx bun.IDB) (int, error)
	CountActiveAdminsExcluding(ctx context.Context, id uuid.UUID) (int, error)
	CountActiveAdminsExcludingTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// GetByIdentifier resolves a user by username or email, case-insensitively,
// excluding soft-deleted rows.
func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	normalized := NormalizeUsername(identifier)

	options := make([]identifierOption, 0, 3)
	if isUUID(normalized) {
		options = append(options, identifierOption{expr: "?TableAlias.id = ?", value: normalized})
	}
	options = append(options,
		identifierOption{expr: "?TableAlias.username = ?", value: normalized},
		identifierOption{expr: "lower(?TableAlias.email) = ?", value: normalized},
	)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(opt.expr, opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// List returns a page of non-deleted users ordered by creation time
// ascending, plus the total count the filter matches.
func (a *users) List(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	var records []*User
	q := a.db.NewSelect().Model(&records)

	if filter.Role != nil {
		q = q.Where("?TableAlias.user_role = ?", string(*filter.Role))
	}
	if filter.IsActive != nil {
		q = q.Where("?TableAlias.is_active = ?", *filter.IsActive)
	}

	limit, offset := filter.limitOffset()
	count, err := q.
		OrderExpr("?TableAlias.created_at ASC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

func (a *users) CountUsers(ctx context.Context) (int, error) {
	return a.db.NewSelect().Model((*User)(nil)).Count(ctx)
}

// CountAllUsersTx counts every row, soft-deleted included.
func (a *users) CountAllUsersTx(ctx context.Context, tx bun.IDB) (int, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		WhereAllWithDeleted().
		Count(ctx)
}

func (a *users) CountActiveAdminsExcluding(ctx context.Context, id uuid.UUID) (int, error) {
	return a.CountActiveAdminsExcludingTx(ctx, a.db, id)
}

// CountActiveAdminsExcludingTx counts non-deleted, active admins other than
// the given id. Callers enforcing the last-admin invariant must run it on the
// same transaction that performs the mutation.
func (a *users) CountActiveAdminsExcludingTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.user_role = ?", string(RoleAdmin)).
		Where("?TableAlias.is_active = ?", true).
		Where("?TableAlias.id != ?", id).
		Count(ctx)
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return a.execPasswordSwap(ctx, tx, ResetUserPasswordSQL, id, passwordHash)
}

func (a *users) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return a.execPasswordSwap(ctx, tx, ChangeUserPasswordSQL, id, passwordHash)
}

func (a *users) execPasswordSwap(ctx context.Context, tx bun.IDB, sql string, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, sql, passwordHash, time.Now(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	now := time.Now()
	res, err := a.Repository.RawTx(ctx, tx, SoftDeleteUserSQL, now, now, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// TrackSuccessfulLogin stamps last_login_at. The ORM update path is skipped
// on purpose: a raw statement keeps this write cheap and free of zero-value
// column surprises.
func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"last_login_at" = ?,
			"updated_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, now, now, user.ID).Exec(ctx)

	return err
}

type identifierOption struct {
	expr  string
	value string
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.Username = NormalizeUsername(record.Username)
	record.Email = strings.TrimSpace(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
