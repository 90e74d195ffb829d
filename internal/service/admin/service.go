package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

// ErrProtectedUser is returned when an admin account is targeted for
// suspension or deletion.
var ErrProtectedUser = errors.New("admin accounts cannot be modified through this path")

const (
	platformStatsKey = "platform_stats"
	reminderStatsKey = "reminder_stats"
)

type Service interface {
	PlatformStats(ctx context.Context) (*model.PlatformStats, error)
	ReminderStats(ctx context.Context) (*model.ReminderStats, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// service is a read-mostly projection layer: the stats methods never
// mutate state and never recompute warranty status themselves. They trust
// the engine's last write, so freshness is bounded by scan-cycle latency
// plus the cache TTL.
type service struct {
	userRepo     repository.UserRepository
	warrantyRepo repository.WarrantyRepository
	dispatchRepo repository.DispatchLogRepository
	cache        *gocache.Cache
}

func NewService(
	userRepo repository.UserRepository,
	warrantyRepo repository.WarrantyRepository,
	dispatchRepo repository.DispatchLogRepository,
	cacheTTL time.Duration,
) Service {
	return &service{
		userRepo:     userRepo,
		warrantyRepo: warrantyRepo,
		dispatchRepo: dispatchRepo,
		cache:        gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *service) PlatformStats(ctx context.Context) (*model.PlatformStats, error) {
	if cached, ok := s.cache.Get(platformStatsKey); ok {
		return cached.(*model.PlatformStats), nil
	}

	totalUsers, err := s.userRepo.Count(ctx, model.RoleUser, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	activeUsers, err := s.userRepo.Count(ctx, model.RoleUser, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	totalWarranties, err := s.warrantyRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count warranties: %w", err)
	}

	expiringSoon, err := s.warrantyRepo.CountByStatus(ctx, model.WarrantyStatusExpiringSoon)
	if err != nil {
		return nil, fmt.Errorf("failed to count expiring warranties: %w", err)
	}

	expired, err := s.warrantyRepo.CountByStatus(ctx, model.WarrantyStatusExpired)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired warranties: %w", err)
	}

	stats := &model.PlatformStats{
		TotalUsers:      totalUsers,
		ActiveUsers:     activeUsers,
		TotalWarranties: totalWarranties,
		ExpiringSoon:    expiringSoon,
		Expired:         expired,
	}

	s.cache.SetDefault(platformStatsKey, stats)
	return stats, nil
}

func (s *service) ReminderStats(ctx context.Context) (*model.ReminderStats, error) {
	if cached, ok := s.cache.Get(reminderStatsKey); ok {
		return cached.(*model.ReminderStats), nil
	}

	total, err := s.dispatchRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count dispatch records: %w", err)
	}

	byType, err := s.dispatchRepo.AggregateByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reminders by type: %w", err)
	}

	byChannel, err := s.dispatchRepo.AggregateByChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reminders by channel: %w", err)
	}

	stats := &model.ReminderStats{
		TotalReminders: total,
		ByType:         byType,
		ByChannel:      byChannel,
	}

	s.cache.SetDefault(reminderStatsKey, stats)
	return stats, nil
}

func (s *service) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx, model.RoleUser)
}

// SetUserActive suspends or reactivates an account. Suspended users keep
// their warranties; the engine skips them by policy until reactivation.
func (s *service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		return ErrProtectedUser
	}

	return s.userRepo.SetActive(ctx, id, active)
}

// DeleteUser removes the account and cascades to its warranties and
// dispatch records.
func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		return ErrProtectedUser
	}

	if err := s.dispatchRepo.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user dispatch records: %w", err)
	}
	if err := s.warrantyRepo.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user warranties: %w", err)
	}
	return s.userRepo.Delete(ctx, id)
}
