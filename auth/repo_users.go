package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store contract the core reads from. Registration
// is its only write path.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountTx(ctx context.Context, tx bun.IDB) (int, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

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
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("record not found", goerrors.CategoryNotFound).
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Exists(ctx)
}

func (a *users) Count(ctx context.Context) (int, error) {
	return a.CountTx(ctx, a.db)
}

func (a *users) CountTx(ctx context.Context, tx bun.IDB) (int, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Count(ctx)
}

// Create and CreateTx shadow the embedded repository so every insert goes
// through email normalization.
func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	record.Email = NormalizeEmail(record.Email)
	return a.Repository.CreateTx(ctx, tx, record)
}
