package service_test

import (
	"context"
	"testing"

	"posledger/internal/config"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (service.AuthService, *stubUserRepo, uuid.UUID) {
	repo := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    168,
	}
	return service.NewAuthService(repo, cfg), repo, uuid.New()
}

func seedUser(t *testing.T, svc service.AuthService, businessID uuid.UUID, username, password, role string) *dto.UserResponse {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), businessID, dto.CreateUserRequest{
		Username:       username,
		Name:           "Test " + username,
		Email:          username + "@example.com",
		Password:       password,
		Role:           role,
		CommissionRate: decimal.NewFromFloat(0.02),
	})
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	svc, _, businessID := newAuthFixture()
	seedUser(t, svc, businessID, "carla", "s3cret-pass", "cashier")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "carla",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "carla", resp.User.Username)

	// Claims carry identity and tenancy
	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "carla", claims["username"])
	assert.Equal(t, "cashier", claims["role"])
	assert.Equal(t, businessID.String(), claims["business_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, businessID := newAuthFixture()
	seedUser(t, svc, businessID, "dario", "correct-pass", "cashier")

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "dario",
		Password: "wrong-pass",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "nobody",
		Password: "whatever1",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, _, businessID := newAuthFixture()
	u := seedUser(t, svc, businessID, "elba", "some-pass-123", "supervisor")
	require.NoError(t, svc.DeactivateUser(context.Background(), businessID, uuid.MustParse(u.ID)))

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "elba",
		Password: "some-pass-123",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestRefresh(t *testing.T) {
	svc, _, businessID := newAuthFixture()
	seedUser(t, svc, businessID, "fede", "refresh-pass1", "admin")

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "fede",
		Password: "refresh-pass1",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "fede", refreshed.User.Username)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestUserLifecycle(t *testing.T) {
	svc, _, businessID := newAuthFixture()
	u := seedUser(t, svc, businessID, "gina", "lifecycle-pw", "cashier")
	id := uuid.MustParse(u.ID)

	// Deactivated users disappear from the default listing
	require.NoError(t, svc.DeactivateUser(context.Background(), businessID, id))
	active, err := svc.ListUsers(context.Background(), businessID, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.ListUsers(context.Background(), businessID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.ReactivateUser(context.Background(), businessID, id))
	active, err = svc.ListUsers(context.Background(), businessID, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// Another tenant cannot touch this user
	err = svc.DeactivateUser(context.Background(), uuid.New(), id)
	assert.Error(t, err)
}
