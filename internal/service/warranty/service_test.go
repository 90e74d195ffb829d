package warranty

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type fakeWarrantyRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*model.Warranty
	updateErr error
}

func newFakeWarrantyRepo() *fakeWarrantyRepo {
	return &fakeWarrantyRepo{items: make(map[uuid.UUID]*model.Warranty)}
}

func (r *fakeWarrantyRepo) Create(_ context.Context, w *model.Warranty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w.ID = uuid.New()
	w.Version = 1
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *fakeWarrantyRepo) Get(_ context.Context, id uuid.UUID) (*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWarrantyRepo) Update(_ context.Context, w *model.Warranty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.items[w.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != w.Version {
		return repository.ErrVersionConflict
	}
	w.Version++
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *fakeWarrantyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeWarrantyRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Warranty
	for _, w := range r.items {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWarrantyRepo) ListDueForScan(context.Context, time.Time, time.Duration, int, int) ([]*model.ScanCandidate, error) {
	return nil, nil
}

func (r *fakeWarrantyRepo) UpdateStatus(context.Context, uuid.UUID, model.WarrantyStatus, int64) error {
	return nil
}

func (r *fakeWarrantyRepo) CountAll(context.Context) (int64, error) { return 0, nil }

func (r *fakeWarrantyRepo) CountByStatus(context.Context, model.WarrantyStatus) (int64, error) {
	return 0, nil
}

func (r *fakeWarrantyRepo) DeleteByUser(context.Context, uuid.UUID) error { return nil }

type fakeDispatchRepo struct {
	mu              sync.Mutex
	deletedWarranty []uuid.UUID
	deletedUser     []uuid.UUID
}

func (r *fakeDispatchRepo) TryRecord(context.Context, *model.DispatchRecord) (bool, error) {
	return false, nil
}

func (r *fakeDispatchRepo) ListSentOffsets(context.Context, uuid.UUID) ([]int, error) {
	return nil, nil
}

func (r *fakeDispatchRepo) CountAll(context.Context) (int64, error) { return 0, nil }

func (r *fakeDispatchRepo) AggregateByType(context.Context) ([]model.ReminderCount, error) {
	return nil, nil
}

func (r *fakeDispatchRepo) AggregateByChannel(context.Context) ([]model.ReminderCount, error) {
	return nil, nil
}

func (r *fakeDispatchRepo) DeleteByWarranty(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedWarranty = append(r.deletedWarranty, id)
	return nil
}

func (r *fakeDispatchRepo) DeleteByUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedUser = append(r.deletedUser, id)
	return nil
}

const window = 30 * 24 * time.Hour

func newTestService(now time.Time) (Service, *fakeWarrantyRepo, *fakeDispatchRepo) {
	repo := newFakeWarrantyRepo()
	dispatch := &fakeDispatchRepo{}
	return NewService(repo, dispatch, stubClock{now: now}, window), repo, dispatch
}

func TestCreateDerivesStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	userID := uuid.New()

	tests := []struct {
		name   string
		expiry time.Time
		want   model.WarrantyStatus
	}{
		{"far future", now.Add(365 * 24 * time.Hour), model.WarrantyStatusActive},
		{"inside window", now.Add(10 * 24 * time.Hour), model.WarrantyStatusExpiringSoon},
		{"already past", now.Add(-24 * time.Hour), model.WarrantyStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := svc.Create(context.Background(), userID, &model.CreateWarrantyRequest{
				ProductName:  "Laptop",
				PurchaseDate: now.Add(-400 * 24 * time.Hour),
				ExpiryDate:   tt.expiry,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Status)
			assert.NotEqual(t, uuid.Nil, w.ID)
		})
	}
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	_, err := svc.Create(context.Background(), uuid.New(), &model.CreateWarrantyRequest{
		ProductName:  "Laptop",
		PurchaseDate: now,
		ExpiryDate:   now.Add(-24 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestGetEnforcesOwnership(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New(), w.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateRecomputesStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, model.WarrantyStatusActive, w.Status)

	// Pulling the expiry into the window flips the status on the same write.
	newExpiry := now.Add(5 * 24 * time.Hour)
	updated, err := svc.Update(context.Background(), owner, w.ID, &model.UpdateWarrantyRequest{
		ExpiryDate: &newExpiry,
	})
	require.NoError(t, err)
	assert.Equal(t, model.WarrantyStatusExpiringSoon, updated.Status)
	assert.Equal(t, newExpiry, updated.ExpiryDate)
}

func TestUpdateRejectsInvertedDates(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	badExpiry := now.Add(-24 * time.Hour)
	_, err = svc.Update(context.Background(), owner, w.ID, &model.UpdateWarrantyRequest{
		ExpiryDate: &badExpiry,
	})
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestUpdateSurfacesVersionConflict(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	repo.updateErr = repository.ErrVersionConflict

	name := "Freezer"
	_, err = svc.Update(context.Background(), owner, w.ID, &model.UpdateWarrantyRequest{
		ProductName: &name,
	})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestDeleteCascadesDispatchRecords(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, repo, dispatch := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), owner, w.ID))

	_, err = repo.Get(context.Background(), w.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []uuid.UUID{w.ID}, dispatch.deletedWarranty)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, dispatch := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), w.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, dispatch.deletedWarranty)
}

func TestAttachInvoice(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	owner := uuid.New()

	w, err := svc.Create(context.Background(), owner, &model.CreateWarrantyRequest{
		ProductName:  "Fridge",
		PurchaseDate: now,
		ExpiryDate:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	updated, err := svc.AttachInvoice(context.Background(), owner, w.ID, "https://files.example.com/invoice.pdf")
	require.NoError(t, err)
	require.NotNil(t, updated.InvoiceURL)
	assert.Equal(t, "https://files.example.com/invoice.pdf", *updated.InvoiceURL)

	got, err := svc.Get(context.Background(), owner, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InvoiceURL)
	assert.Equal(t, "https://files.example.com/invoice.pdf", *got.InvoiceURL)
}
