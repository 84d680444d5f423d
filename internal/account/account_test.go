package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking/internal/model"
)

// fakeRepo enforces the same uniqueness rules as the users table.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
	err    error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: map[int64]*model.User{}} }

func (f *fakeRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, x := range f.users {
		if x.Email == u.Email || x.Username == u.Username {
			return model.ErrDuplicateUser
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) UserExists(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, x := range f.users {
		if x.Email == email || x.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) UserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, x := range f.users {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeRepo) ListUsers(_ context.Context, active bool) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.User
	for id := int64(1); id <= f.nextID; id++ {
		if x, ok := f.users[id]; ok && x.IsActive == active {
			out = append(out, *x)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetUserActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if x, ok := f.users[id]; ok {
		x.IsActive = active
	}
	return f.err
}

func (f *fakeRepo) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return f.err
}

func newTestService(repo Repository) *Service {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func TestRegister(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "bia", Email: "b@x", Password: "secret"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.IsActive)

	stored, err := svc.FindByEmail(ctx, "b@x")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	assert.True(t, svc.Verify(stored, "secret"))
	assert.False(t, svc.Verify(stored, "secretx"))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"no username", RegisterInput{Email: "b@x", Password: "p"}, "field username is required"},
		{"blank email", RegisterInput{Username: "bia", Email: "  ", Password: "p"}, "field email is required"},
		{"no password", RegisterInput{Username: "bia", Email: "b@x"}, "field password is required"},
		{"password over 72 chars", RegisterInput{Username: "bia", Email: "b@x", Password: strings.Repeat("a", 73)}, "field password is too long"},
		{"password over 72 bytes", RegisterInput{Username: "bia", Email: "b@x", Password: strings.Repeat("é", 40)}, "field password is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Messages, tt.want)
		})
	}
}

func TestRegisterLongestPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	pw := strings.Repeat("a", 72)

	u, err := svc.Register(context.Background(), RegisterInput{Username: "bia", Email: "b@x", Password: pw})
	require.NoError(t, err)
	assert.True(t, svc.Verify(u, pw))
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "bia", Email: "b@x", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "b@x", Password: "p"})
	assert.ErrorIs(t, err, model.ErrDuplicateUser, "same email")

	_, err = svc.Register(ctx, RegisterInput{Username: "bia", Email: "other@x", Password: "p"})
	assert.ErrorIs(t, err, model.ErrDuplicateUser, "same username")
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	svc := newTestService(newFakeRepo())

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), RegisterInput{Username: "bia", Email: "b@x", Password: "p"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, model.ErrDuplicateUser)
	}
	assert.Equal(t, 1, ok)
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "bia", Email: "b@x", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "b@x", "secret")
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = svc.Authenticate(ctx, "b@x", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials, "wrong password wins over not-approved")

	_, err = svc.Authenticate(ctx, "nobody@x", "secret")
	assert.ErrorIs(t, err, ErrBadCredentials)

	require.NoError(t, svc.Approve(ctx, u.ID))
	got, err := svc.Authenticate(ctx, "b@x", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "bia", got.Username)
}

func TestAuthenticateStoreDown(t *testing.T) {
	repo := newFakeRepo()
	repo.err = model.ErrUnavailable
	svc := newTestService(repo)

	_, err := svc.Authenticate(context.Background(), "b@x", "secret")
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.False(t, errors.Is(err, ErrBadCredentials))
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "a@x", Password: "p"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, RegisterInput{Username: "bia", Email: "b@x", Password: "p"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, a.ID, a.ID), ErrSelfDelete)
	_, err = svc.FindByEmail(ctx, "a@x")
	assert.NoError(t, err, "self-delete must leave the row")

	require.NoError(t, svc.Delete(ctx, a.ID, b.ID))
	_, err = svc.FindByEmail(ctx, "b@x")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPendingActive(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "a@x", Password: "p"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "bia", Email: "b@x", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, a.ID))

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bia", pending[0].Username)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ana", active[0].Username)
}
