package warranty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warrantywise/warranty-api/internal/engine"
	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

var (
	ErrNotOwner     = errors.New("warranty does not belong to this user")
	ErrInvalidDates = errors.New("expiry date must not be before purchase date")
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req *model.CreateWarrantyRequest) (*model.Warranty, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Warranty, error)
	List(ctx context.Context, userID uuid.UUID) ([]*model.Warranty, error)
	Update(ctx context.Context, userID, id uuid.UUID, req *model.UpdateWarrantyRequest) (*model.Warranty, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	AttachInvoice(ctx context.Context, userID, id uuid.UUID, invoiceURL string) (*model.Warranty, error)
}

type service struct {
	repo         repository.WarrantyRepository
	dispatchRepo repository.DispatchLogRepository
	clock        engine.Clock
	window       time.Duration
}

// NewService builds the warranty service. The expiring-soon window must
// match the engine's so user-visible status never disagrees with the scan.
func NewService(repo repository.WarrantyRepository, dispatchRepo repository.DispatchLogRepository, clock engine.Clock, window time.Duration) Service {
	return &service{
		repo:         repo,
		dispatchRepo: dispatchRepo,
		clock:        clock,
		window:       window,
	}
}

// Create registers a warranty. Status is derived here, never taken from
// the request; the request type has no status field to begin with.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req *model.CreateWarrantyRequest) (*model.Warranty, error) {
	if req.ExpiryDate.Before(req.PurchaseDate) {
		return nil, ErrInvalidDates
	}

	w := &model.Warranty{
		UserID:       userID,
		ProductName:  req.ProductName,
		Brand:        req.Brand,
		SerialNumber: req.SerialNumber,
		PurchaseDate: req.PurchaseDate,
		ExpiryDate:   req.ExpiryDate,
		Notes:        req.Notes,
		Status:       engine.EvaluateStatus(req.ExpiryDate, s.clock.Now(), s.window),
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create warranty: %w", err)
	}

	return w, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*model.Warranty, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrNotOwner
	}
	return w, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*model.Warranty, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies a user edit. The status is recomputed from the edited
// dates; any status the client might have sent is unrepresentable in the
// request type. A version conflict (engine writing concurrently) is
// surfaced to the caller for a retry with fresh data.
func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req *model.UpdateWarrantyRequest) (*model.Warranty, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.ProductName != nil {
		w.ProductName = *req.ProductName
	}
	if req.Brand != nil {
		w.Brand = req.Brand
	}
	if req.SerialNumber != nil {
		w.SerialNumber = req.SerialNumber
	}
	if req.PurchaseDate != nil {
		w.PurchaseDate = *req.PurchaseDate
	}
	if req.ExpiryDate != nil {
		w.ExpiryDate = *req.ExpiryDate
	}
	if req.Notes != nil {
		w.Notes = req.Notes
	}

	if w.ExpiryDate.Before(w.PurchaseDate) {
		return nil, ErrInvalidDates
	}

	w.Status = engine.EvaluateStatus(w.ExpiryDate, s.clock.Now(), s.window)

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

// Delete removes the warranty and its dispatch records
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.dispatchRepo.DeleteByWarranty(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dispatch records: %w", err)
	}

	return nil
}

func (s *service) AttachInvoice(ctx context.Context, userID, id uuid.UUID, invoiceURL string) (*model.Warranty, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	w.InvoiceURL = &invoiceURL

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}
