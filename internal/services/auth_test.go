package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-storefront/internal/models"
)

type fakeAuthUserStore struct {
	byEmail map[string]*models.UserDB
	nextID  int64
	readErr error
	saveErr error
}

func newFakeAuthUserStore() *fakeAuthUserStore {
	return &fakeAuthUserStore{byEmail: make(map[string]*models.UserDB), nextID: 1}
}

func (f *fakeAuthUserStore) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.byEmail[email], nil
}

func (f *fakeAuthUserStore) Save(ctx context.Context, firstname, lastname, email, passwordHash string) (*models.UserDB, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	user := &models.UserDB{
		UserID:       f.nextID,
		FirstName:    firstname,
		LastName:     lastname,
		Email:        email,
		PasswordHash: passwordHash,
	}
	f.nextID++
	f.byEmail[email] = user
	return user, nil
}

type fakeTokenGenerator struct {
	err error
}

func (f *fakeTokenGenerator) Generate(ctx context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-user", nil
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with a peppered bcrypt hash", func(t *testing.T) {
		store := newFakeAuthUserStore()
		svc := NewAuthService(store, store, &fakeTokenGenerator{}, "pepper")

		token, err := svc.Register(ctx, "John", "Doe", "john@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "token-for-user", token)

		user := store.byEmail["john@example.com"]
		require.NotNil(t, user)
		assert.True(t, strings.HasPrefix(user.PasswordHash, "$2a$"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123pepper")))
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		store := newFakeAuthUserStore()
		svc := NewAuthService(store, store, &fakeTokenGenerator{}, "pepper")

		_, err := svc.Register(ctx, "John", "Doe", "john@example.com", "secret123")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Jane", "Doe", "john@example.com", "other456")
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("store failure is passed through", func(t *testing.T) {
		store := newFakeAuthUserStore()
		store.saveErr = errors.New("connection reset")
		svc := NewAuthService(store, store, &fakeTokenGenerator{}, "pepper")

		_, err := svc.Register(ctx, "John", "Doe", "john@example.com", "secret123")
		assert.Error(t, err)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, pepper string) (*AuthService, *fakeAuthUserStore) {
		store := newFakeAuthUserStore()
		svc := NewAuthService(store, store, &fakeTokenGenerator{}, pepper)
		_, err := svc.Register(ctx, "John", "Doe", "john@example.com", "secret123")
		require.NoError(t, err)
		return svc, store
	}

	t.Run("valid credentials return a token", func(t *testing.T) {
		svc, _ := register(t, "pepper")

		token, err := svc.Login(ctx, "john@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "token-for-user", token)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		svc, _ := register(t, "pepper")

		_, err := svc.Login(ctx, "john@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email fails with the same error as a wrong password", func(t *testing.T) {
		svc, _ := register(t, "pepper")

		_, err := svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("hash from a different pepper does not verify", func(t *testing.T) {
		_, store := register(t, "pepper")
		other := NewAuthService(store, store, &fakeTokenGenerator{}, "different")

		_, err := other.Login(ctx, "john@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
