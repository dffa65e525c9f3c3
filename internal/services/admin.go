package services

import (
	"context"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/sirupsen/logrus"
)

// OptionalTime distinguishes "leave alone" (Set false) from "clear"
// (Set true, Value nil).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

type SubscriptionUpdate struct {
	ExpiresAt     OptionalTime
	MaxProperties *int
	MaxEmployees  *int
}

func (s *Service) ListOwners(ctx context.Context, actor Actor) ([]types.UserResponse, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	owners, err := s.repo.ListOwners(ctx)

	if err != nil {
		return nil, err
	}

	return types.NewUserResponses(owners, s.now()), nil
}

// UpdateSubscription applies an admin's edit to an owner's plan and records
// the before/after pair.
func (s *Service) UpdateSubscription(ctx context.Context, actor Actor, ownerID uint, in SubscriptionUpdate) (types.UserResponse, error) {
	const op = "services.UpdateSubscription"
	log := s.log.WithField("operation", op)

	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return types.UserResponse{}, err
	}

	if !in.ExpiresAt.Set && in.MaxProperties == nil && in.MaxEmployees == nil {
		return types.UserResponse{}, policy.Validation("subscription", "at least one of expires_at, max_properties, max_employees is required")
	}

	if in.MaxProperties != nil && *in.MaxProperties < 0 {
		return types.UserResponse{}, policy.Validation("max_properties", "max_properties must not be negative")
	}

	if in.MaxEmployees != nil && *in.MaxEmployees < 0 {
		return types.UserResponse{}, policy.Validation("max_employees", "max_employees must not be negative")
	}

	owner, err := s.owner(ctx, ownerID)

	if err != nil {
		return types.UserResponse{}, err
	}

	before := owner.Subscription.WithDefaults()
	after := before

	if in.ExpiresAt.Set {
		after.ExpiresAt = in.ExpiresAt.Value
	}

	if in.MaxProperties != nil {
		limit := *in.MaxProperties
		after.MaxProperties = &limit
	}

	if in.MaxEmployees != nil {
		limit := *in.MaxEmployees
		after.MaxEmployees = &limit
	}

	if _, err := s.repo.UpdateSubscription(ctx, owner.ID, actor.ID, before, after); err != nil {
		return types.UserResponse{}, renameNotFound(err, "owner")
	}

	log.WithFields(logrus.Fields{
		"owner_id": owner.ID,
		"admin_id": actor.ID,
	}).Info("subscription updated")

	owner.Subscription = after

	return types.NewUserResponse(owner, s.now()), nil
}

func (s *Service) SubscriptionHistory(ctx context.Context, actor Actor, ownerID uint) ([]types.SubscriptionChangeResponse, error) {
	const op = "services.SubscriptionHistory"

	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	if _, err := s.owner(ctx, ownerID); err != nil {
		return nil, err
	}

	changes, err := s.repo.ListSubscriptionChanges(ctx, ownerID)

	if err != nil {
		return nil, err
	}

	out := make([]types.SubscriptionChangeResponse, 0, len(changes))

	for _, c := range changes {
		resp, err := types.NewSubscriptionChangeResponse(c)

		if err != nil {
			s.log.WithField("operation", op).WithError(err).Warnf("skipping unreadable change %d", c.ID)
			continue
		}

		out = append(out, resp)
	}

	return out, nil
}
