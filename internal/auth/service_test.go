package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/shared"
)

func newService(t *testing.T) (*auth.Service, *auth.MemoryRepository) {
	t.Helper()
	repo := auth.NewMemoryRepository()
	tokens := auth.NewTokenService(auth.NewMemoryTokenStore(), "test-secret", 30*time.Minute)
	return auth.NewService(repo, tokens), repo
}

func TestSignupThenLogin(t *testing.T) {
	svc, _ := newService(t)

	user, grant, err := svc.Signup(context.Background(), "a@x.com", "p", "A", "employee")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, shared.RoleEmployee, user.Role)
	assert.NotEmpty(t, grant.Token)

	loggedIn, loginGrant, err := svc.Login(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Equal(t, shared.RoleEmployee, loginGrant.Role)
	assert.NotEqual(t, grant.Token, loginGrant.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Signup(context.Background(), "a@x.com", "p", "A", "employee")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@x.com", "p")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, repo := newService(t)
	_, _, err := svc.Signup(context.Background(), "a@x.com", "p", "A", "employee")
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), "a@x.com", "q", "B", "admin")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
	assert.Equal(t, 1, repo.Len(), "duplicate signup must not create a second identity")
}

func TestSignupInvalidRole(t *testing.T) {
	svc, repo := newService(t)
	_, _, err := svc.Signup(context.Background(), "a@x.com", "p", "A", "superuser")
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
	assert.Equal(t, 0, repo.Len())
}

func TestSignupMissingFields(t *testing.T) {
	svc, _ := newService(t)
	cases := []struct {
		email, password, name string
	}{
		{"", "p", "A"},
		{"a@x.com", "", "A"},
		{"a@x.com", "p", ""},
	}
	for _, tc := range cases {
		_, _, err := svc.Signup(context.Background(), tc.email, tc.password, tc.name, "employee")
		assert.ErrorIs(t, err, auth.ErrMissingField)
	}
}

func TestSignupStoresHashedPassword(t *testing.T) {
	svc, repo := newService(t)
	_, _, err := svc.Signup(context.Background(), "a@x.com", "hunter2", "A", "employee")
	require.NoError(t, err)

	stored, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "hunter2")
}

func TestConcurrentSignupSameEmail(t *testing.T) {
	svc, repo := newService(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Signup(context.Background(), "race@x.com", "p", "Racer", "employee")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, auth.ErrEmailTaken)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent signup must win")
	assert.Equal(t, 1, repo.Len())
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newService(t)
	_, grant, err := svc.Signup(context.Background(), "a@x.com", "p", "A", "employee")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), grant.Token))
	_, err = svc.Tokens().Validate(context.Background(), grant.Token)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	// Idempotent on repeat.
	require.NoError(t, svc.Logout(context.Background(), grant.Token))
}

// faultRepo simulates an unreachable credential store.
type faultRepo struct {
	err error
}

func (r faultRepo) FindByEmail(context.Context, string) (*auth.User, error) { return nil, r.err }
func (r faultRepo) FindByID(context.Context, string) (*auth.User, error)   { return nil, r.err }
func (r faultRepo) Create(context.Context, *auth.User) error               { return r.err }

func TestLoginStoreFaultIsNotUnauthenticated(t *testing.T) {
	storeDown := errors.New("dial tcp: connection refused")
	tokens := auth.NewTokenService(auth.NewMemoryTokenStore(), "test-secret", 30*time.Minute)
	svc := auth.NewService(faultRepo{err: storeDown}, tokens)

	_, _, err := svc.Login(context.Background(), "a@x.com", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials,
		"a store outage must not be reported as bad credentials")
	assert.ErrorIs(t, err, storeDown)
}
