package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"downtimelog/store"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password. Callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("invalid_credentials")

const bcryptCost = 10

// dummyHash is compared against when the username does not exist so a
// failed lookup costs about the same as a failed password check.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("downtimelog-dummy"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return string(h)
}()

type Service struct {
	users *store.UserStore
}

func NewService(users *store.UserStore) *Service {
	return &Service{users: users}
}

// Register hashes the password and persists a new user. Returns
// store.ErrConflict when the username is already taken.
func (s *Service) Register(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, username, string(hash))
}

// Authenticate checks a username/password pair against the stored
// hash. Unknown users and wrong passwords both return
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	user, err := s.users.GetByUsername(ctx, username)

	targetHash := dummyHash
	if err == nil {
		targetHash = user.Password
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	match := bcrypt.CompareHashAndPassword([]byte(targetHash), []byte(password)) == nil
	if err != nil || !match {
		return ErrInvalidCredentials
	}
	return nil
}
