// Package service contains the marketplace business rules.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain Go values, never *http.Request, so the same rules
// apply whether a call comes from the JSON API or the CLI. Every failure is
// returned as an error; ordinary bad input is an *apperror.AppError the
// caller can match with errors.Is.
//
// TRANSACTIONS:
// Each operation that reads before it writes (the email and title
// uniqueness checks, the monotonic price check) runs inside
// repository.Store.WithinTx, so a concurrent caller cannot slip a
// conflicting write between the check and the write.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/qbay/internal/apperror"
	"github.com/sakif/qbay/internal/auth"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/repository"
	"github.com/sakif/qbay/internal/validate"
)

// PasswordHasher is the subset of *auth.PasswordService the account service
// needs. Verify must return auth.ErrPasswordMismatch for a wrong password.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

var _ PasswordHasher = (*auth.PasswordService)(nil)

// loginFailed is shared by every login failure so the response does not
// reveal whether the email exists.
const loginFailed = "invalid email or password"

// AccountService handles registration, login and profile changes.
type AccountService struct {
	store     repository.Store
	passwords PasswordHasher
	logger    *slog.Logger
}

func NewAccountService(store repository.Store, passwords PasswordHasher, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:     store,
		passwords: passwords,
		logger:    logger,
	}
}

// ProfileUpdate carries the fields a user may change on their own account.
// A nil field is left as it is.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	ShippingAddress *string
	PostalCode      *string
}

// Register creates a new account.
//
// The checks run in a fixed order and the first failure is returned:
// missing email or password, email format, password complexity, username
// shape, username length, and last (inside the transaction) whether the
// email is already in use. A new account starts with an empty shipping
// address and postal code and a balance of model.DefaultBalance.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if !validate.Email(email) {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if !validate.Password(password) {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf(
			"password must be at least %d characters and contain an uppercase letter, a lowercase letter and a punctuation character",
			validate.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	if err := checkUsername(name); err != nil {
		return nil, err
	}

	// Hash outside the transaction: bcrypt is slow and the store serializes
	// transactions.
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Username:     name,
		Email:        email,
		PasswordHash: hash,
		Balance:      model.DefaultBalance,
	}

	err = s.store.WithinTx(ctx, func(r repository.Repos) error {
		existing, err := r.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperror.Conflict("user", "email", email)
		}
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error("failed to register user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login returns the account whose email is email and whose password hash
// matches password. Zero matches, more than one match and a wrong password
// all fail the same way with apperror.ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, error) {
	users, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if len(users) != 1 {
		if len(users) > 1 {
			s.logger.Warn("more than one user shares an email", slog.String("email", email))
		}
		return nil, apperror.Unauthorized(loginFailed)
	}

	user := users[0]
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unreadable",
				slog.String("id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(loginFailed)
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return &user, nil
}

// GetUser returns the account with the given id, or apperror.ErrNotFound.
func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}
	return s.store.Users().GetByID(ctx, id)
}

// UpdateProfile applies upd to the account userID.
//
// Every supplied field is checked before anything is written: a username
// must pass the registration rules, an email must be well formed and not
// belong to another account, and a postal code must be a Canadian code.
// The shipping address is free text. If any check fails the account is
// left unchanged.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	if upd.Username != nil {
		if err := checkUsername(*upd.Username); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if *upd.Email == "" {
			return nil, apperror.ValidationFailed("email", "email is required")
		}
		if !validate.Email(*upd.Email) {
			return nil, apperror.ValidationFailed("email", "email address is not valid")
		}
	}
	if upd.PostalCode != nil && !validate.PostalCode(*upd.PostalCode) {
		return nil, apperror.ValidationFailed("postalCode",
			"postal code must be a Canadian postal code such as A1A 1A1")
	}

	var updated model.User
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if upd.Email != nil && *upd.Email != user.Email {
			existing, err := r.Users.FindByEmail(ctx, *upd.Email)
			if err != nil {
				return err
			}
			for _, other := range existing {
				if other.ID != user.ID {
					return apperror.Conflict("user", "email", *upd.Email)
				}
			}
		}

		updated = *user
		if upd.Username != nil {
			updated.Username = *upd.Username
		}
		if upd.Email != nil {
			updated.Email = *upd.Email
		}
		if upd.ShippingAddress != nil {
			updated.ShippingAddress = *upd.ShippingAddress
		}
		if upd.PostalCode != nil {
			updated.PostalCode = *upd.PostalCode
		}
		return r.Users.Update(ctx, &updated)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error("failed to update profile",
			slog.String("id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("id", userID))
	return &updated, nil
}

func checkUsername(name string) error {
	if !validate.Name(name) {
		return apperror.ValidationFailed("username",
			"username must contain only letters, digits and spaces, with no leading or trailing space")
	}
	if !validate.NameLength(name) {
		return apperror.ValidationFailed("username", fmt.Sprintf(
			"username must be between %d and %d characters", validate.MinNameLength, validate.MaxNameLength))
	}
	return nil
}

// isDomainError reports whether err is an *apperror.AppError, i.e. an
// expected outcome rather than a storage fault.
func isDomainError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
