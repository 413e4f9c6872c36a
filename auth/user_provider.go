package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// UserProvider resolves identities from the credential store
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
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
// identity. An unknown email and a wrong password surface the same error;
// the unknown-email path still burns a hash comparison so the two are not
// separable by timing.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, CompareDecoy(password)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

// FindIdentityByEmail resolves an email to an identity without touching the
// password. The bearer middleware uses it to rehydrate a token's subject.
func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user by email")
	}

	return identityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)
