package service

import (
	"context"
	"testing"

	"bi-ops-be/internal/dto"
	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users   map[string]*entity.User
	tokens  []*entity.UserRefreshToken
	revoked []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if byEmail, ok := spec.(specification.ByEmail); ok {
			return r.users[byEmail.Email], nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, token *entity.UserRefreshToken) error {
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	r.revoked = append(r.revoked, tokenHash)
	return nil
}

type fakeEmailService struct {
	sent chan string
}

func (s *fakeEmailService) SendWelcome(toEmail, _ string) error {
	if s.sent != nil {
		s.sent <- toEmail
	}
	return nil
}

func newAuthTestService() (IAuthService, *fakeUserRepo, *fakeEmailService) {
	userRepo := newFakeUserRepo()
	uow := &fakeUow{
		userRepo:    userRepo,
		messageRepo: &fakeMessageRepo{},
		snippetRepo: &fakeSnippetRepo{},
	}
	email := &fakeEmailService{sent: make(chan string, 1)}
	svc := NewAuthService(&fakeFactory{uow: uow}, email, nil)
	return svc, userRepo, email
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		FullName:     "Seed User",
		PasswordHash: &hashStr,
	}
	repo.users[email] = user
	return user
}

func TestRegister(t *testing.T) {
	t.Run("creates user and sends welcome", func(t *testing.T) {
		svc, repo, email := newAuthTestService()

		res, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "owner@example.com",
			Password: "secret-pass",
			FullName: "Shop Owner",
		})
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", res.Email)

		stored := repo.users["owner@example.com"]
		require.NotNil(t, stored)
		require.NotNil(t, stored.PasswordHash)
		assert.NotEqual(t, "secret-pass", *stored.PasswordHash)

		assert.Equal(t, "owner@example.com", <-email.sent)
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc, _, _ := newAuthTestService()

		_, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "owner@example.com",
			Password: "12345",
			FullName: "Shop Owner",
		})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, repo, _ := newAuthTestService()
		seedUser(t, repo, "owner@example.com", "secret-pass")

		_, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "owner@example.com",
			Password: "another-pass",
			FullName: "Imposter",
		})
		assert.ErrorIs(t, err, ErrEmailRegistered)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials yield token", func(t *testing.T) {
		svc, repo, _ := newAuthTestService()
		user := seedUser(t, repo, "owner@example.com", "secret-pass")

		res, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "owner@example.com",
			Password: "secret-pass",
		}, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.Empty(t, res.RefreshToken)
		assert.Equal(t, user.Id, res.User.Id)
		assert.Empty(t, repo.tokens)
	})

	t.Run("remember me issues refresh token", func(t *testing.T) {
		svc, repo, _ := newAuthTestService()
		seedUser(t, repo, "owner@example.com", "secret-pass")

		res, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:      "owner@example.com",
			Password:   "secret-pass",
			RememberMe: true,
		}, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.NotEmpty(t, res.RefreshToken)
		require.Len(t, repo.tokens, 1)
		// Only the hash is stored.
		assert.NotEqual(t, res.RefreshToken, repo.tokens[0].TokenHash)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		svc, repo, _ := newAuthTestService()
		seedUser(t, repo, "owner@example.com", "secret-pass")

		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "owner@example.com",
			Password: "wrong",
		}, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		svc, _, _ := newAuthTestService()

		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		}, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	svc, repo, _ := newAuthTestService()

	t.Run("empty token is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Logout(context.Background(), ""))
		assert.Empty(t, repo.revoked)
	})

	t.Run("revokes by hashed token", func(t *testing.T) {
		require.NoError(t, svc.Logout(context.Background(), "raw-refresh-token"))
		require.Len(t, repo.revoked, 1)
		assert.NotEqual(t, "raw-refresh-token", repo.revoked[0])
	})
}
