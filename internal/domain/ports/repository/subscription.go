package repository

import (
	"context"
	"time"

	"telegram-group-subscription/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindActiveByUser returns the user's current active subscription or
	// domain.ErrNotFound.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindOtherByUserAndStatus lists the user's subscriptions in the given
	// status, excluding excludeID. Used by the lifecycle engine for the
	// supersede and pending-cleanup steps.
	FindOtherByUserAndStatus(ctx context.Context, tx Tx, userID, excludeID string, status model.SubscriptionStatus) ([]*model.Subscription, error)
	// FindActiveEndedBefore lists active subscriptions whose end date is
	// older than cutoff (expiry sweep input).
	FindActiveEndedBefore(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.Subscription, error)
	FindAllActive(ctx context.Context, tx Tx) ([]*model.Subscription, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus) error
	SetInviteLink(ctx context.Context, tx Tx, id, link string) error
	SetLastWarningSent(ctx context.Context, tx Tx, id string, day time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
