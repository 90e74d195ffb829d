package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

// calls is shared by the fakes so cascade ordering can be asserted.
type calls struct {
	order []string
}

func (c *calls) record(name string) { c.order = append(c.order, name) }

type fakeUserRepo struct {
	calls      *calls
	users      map[uuid.UUID]*model.User
	countCalls int
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, role string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.calls.record("user")
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context, role string, activeOnly bool) (int64, error) {
	r.countCalls++
	var n int64
	for _, u := range r.users {
		if u.Role != role {
			continue
		}
		if activeOnly && !u.IsActive {
			continue
		}
		n++
	}
	return n, nil
}

type fakeWarrantyRepo struct {
	calls    *calls
	total    int64
	byStatus map[model.WarrantyStatus]int64
}

func (r *fakeWarrantyRepo) Create(context.Context, *model.Warranty) error { return nil }

func (r *fakeWarrantyRepo) Get(context.Context, uuid.UUID) (*model.Warranty, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeWarrantyRepo) Update(context.Context, *model.Warranty) error { return nil }

func (r *fakeWarrantyRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (r *fakeWarrantyRepo) ListByUser(context.Context, uuid.UUID) ([]*model.Warranty, error) {
	return nil, nil
}

func (r *fakeWarrantyRepo) ListDueForScan(context.Context, time.Time, time.Duration, int, int) ([]*model.ScanCandidate, error) {
	return nil, nil
}

func (r *fakeWarrantyRepo) UpdateStatus(context.Context, uuid.UUID, model.WarrantyStatus, int64) error {
	return nil
}

func (r *fakeWarrantyRepo) CountAll(context.Context) (int64, error) { return r.total, nil }

func (r *fakeWarrantyRepo) CountByStatus(_ context.Context, status model.WarrantyStatus) (int64, error) {
	return r.byStatus[status], nil
}

func (r *fakeWarrantyRepo) DeleteByUser(context.Context, uuid.UUID) error {
	r.calls.record("warranties")
	return nil
}

type fakeDispatchRepo struct {
	calls     *calls
	total     int64
	byType    []model.ReminderCount
	byChannel []model.ReminderCount
}

func (r *fakeDispatchRepo) TryRecord(context.Context, *model.DispatchRecord) (bool, error) {
	return false, nil
}

func (r *fakeDispatchRepo) ListSentOffsets(context.Context, uuid.UUID) ([]int, error) {
	return nil, nil
}

func (r *fakeDispatchRepo) CountAll(context.Context) (int64, error) { return r.total, nil }

func (r *fakeDispatchRepo) AggregateByType(context.Context) ([]model.ReminderCount, error) {
	return r.byType, nil
}

func (r *fakeDispatchRepo) AggregateByChannel(context.Context) ([]model.ReminderCount, error) {
	return r.byChannel, nil
}

func (r *fakeDispatchRepo) DeleteByWarranty(context.Context, uuid.UUID) error { return nil }

func (r *fakeDispatchRepo) DeleteByUser(context.Context, uuid.UUID) error {
	r.calls.record("dispatch")
	return nil
}

func newUser(role string, active bool) *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		Email:    uuid.NewString() + "@example.com",
		Name:     "Test User",
		Role:     role,
		IsActive: active,
	}
}

func newFixture() (Service, *fakeUserRepo, *fakeWarrantyRepo, *fakeDispatchRepo) {
	c := &calls{}
	users := &fakeUserRepo{calls: c, users: make(map[uuid.UUID]*model.User)}
	warranties := &fakeWarrantyRepo{calls: c, byStatus: make(map[model.WarrantyStatus]int64)}
	dispatch := &fakeDispatchRepo{calls: c}
	return NewService(users, warranties, dispatch, time.Minute), users, warranties, dispatch
}

func TestPlatformStats(t *testing.T) {
	svc, users, warranties, _ := newFixture()

	for i := 0; i < 3; i++ {
		require.NoError(t, users.Create(context.Background(), newUser(model.RoleUser, true)))
	}
	require.NoError(t, users.Create(context.Background(), newUser(model.RoleUser, false)))
	require.NoError(t, users.Create(context.Background(), newUser(model.RoleAdmin, true)))

	warranties.total = 12
	warranties.byStatus[model.WarrantyStatusExpiringSoon] = 4
	warranties.byStatus[model.WarrantyStatusExpired] = 2

	stats, err := svc.PlatformStats(context.Background())
	require.NoError(t, err)

	// Admin accounts are excluded from user counts.
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.ActiveUsers)
	assert.Equal(t, int64(12), stats.TotalWarranties)
	assert.Equal(t, int64(4), stats.ExpiringSoon)
	assert.Equal(t, int64(2), stats.Expired)
}

func TestPlatformStatsCached(t *testing.T) {
	svc, users, _, _ := newFixture()
	require.NoError(t, users.Create(context.Background(), newUser(model.RoleUser, true)))

	_, err := svc.PlatformStats(context.Background())
	require.NoError(t, err)
	queried := users.countCalls

	// A second call within the TTL never reaches the repositories.
	_, err = svc.PlatformStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, queried, users.countCalls)
}

func TestReminderStats(t *testing.T) {
	svc, _, _, dispatch := newFixture()

	dispatch.total = 9
	dispatch.byType = []model.ReminderCount{
		{Key: "30_day", Count: 4},
		{Key: "7_day", Count: 3},
		{Key: "1_day", Count: 2},
	}
	dispatch.byChannel = []model.ReminderCount{{Key: model.ChannelEmail, Count: 9}}

	stats, err := svc.ReminderStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(9), stats.TotalReminders)
	assert.Equal(t, dispatch.byType, stats.ByType)
	assert.Equal(t, dispatch.byChannel, stats.ByChannel)
}

func TestListUsersExcludesAdmins(t *testing.T) {
	svc, users, _, _ := newFixture()

	regular := newUser(model.RoleUser, true)
	require.NoError(t, users.Create(context.Background(), regular))
	require.NoError(t, users.Create(context.Background(), newUser(model.RoleAdmin, true)))

	listed, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, regular.ID, listed[0].ID)
}

func TestSetUserActive(t *testing.T) {
	svc, users, _, _ := newFixture()

	u := newUser(model.RoleUser, true)
	require.NoError(t, users.Create(context.Background(), u))

	require.NoError(t, svc.SetUserActive(context.Background(), u.ID, false))
	assert.False(t, users.users[u.ID].IsActive)

	require.NoError(t, svc.SetUserActive(context.Background(), u.ID, true))
	assert.True(t, users.users[u.ID].IsActive)
}

func TestSetUserActiveProtectsAdmins(t *testing.T) {
	svc, users, _, _ := newFixture()

	admin := newUser(model.RoleAdmin, true)
	require.NoError(t, users.Create(context.Background(), admin))

	err := svc.SetUserActive(context.Background(), admin.ID, false)
	assert.ErrorIs(t, err, ErrProtectedUser)
	assert.True(t, users.users[admin.ID].IsActive)
}

func TestSetUserActiveNotFound(t *testing.T) {
	svc, _, _, _ := newFixture()

	err := svc.SetUserActive(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	svc, users, _, _ := newFixture()

	u := newUser(model.RoleUser, true)
	require.NoError(t, users.Create(context.Background(), u))

	require.NoError(t, svc.DeleteUser(context.Background(), u.ID))

	// Dispatch records go first, then warranties, then the account.
	assert.Equal(t, []string{"dispatch", "warranties", "user"}, users.calls.order)
	_, err := users.Get(context.Background(), u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUserProtectsAdmins(t *testing.T) {
	svc, users, _, _ := newFixture()

	admin := newUser(model.RoleAdmin, true)
	require.NoError(t, users.Create(context.Background(), admin))

	err := svc.DeleteUser(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrProtectedUser)
	assert.Empty(t, users.calls.order)
}
