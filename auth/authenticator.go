package auth

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// Auther orchestrates login and bootstrap-gated registration
type Auther struct {
	provider     IdentityProvider
	users        Users
	db           *bun.DB
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users Users, db *bun.DB, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenTTLMinutes(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		users:        users,
		db:           db,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service. Tests use it to control the
// clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates the bootstrap account and returns a signed token. The
// gate runs first: once any user exists, registration fails closed no matter
// what email is offered, including a duplicate one.
func (s *Auther) Register(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	var created *User
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		count, err := s.users.CountTx(ctx, tx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count users")
		}

		if count >= 1 {
			return ErrRegistrationClosed
		}

		exists, err := s.users.ExistsByEmailTx(ctx, tx, email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		hash, err := HashPassword(password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		user := &User{
			Email:        email,
			PasswordHash: hash,
		}

		id, err := hashid.NewUUID(email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive user id")
		}
		user.ID = id

		if created, err = s.users.CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Register failed", "email", email, "error", err)
		return "", err
	}

	token, err := s.tokenService.Generate(identityFromUser(created))
	if err != nil {
		return "", err
	}

	s.logger.Info("Registered bootstrap user", "email", email)
	return token, nil
}

// Login verifies the credentials and returns a signed token. Failures are
// uniform: the caller cannot tell an unknown email from a wrong password.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login verify identity failed", "email", email)
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		return "", err
	}

	return token, nil
}

// IdentityFromSubject resolves a validated token subject back to an identity
func (s *Auther) IdentityFromSubject(ctx context.Context, subject string) (Identity, error) {
	return s.provider.FindIdentityByEmail(ctx, subject)
}

var _ Authenticator = (*Auther)(nil)
