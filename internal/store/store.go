// Package store persists risk profiles, amortization records and the
// reference population.
package store

import (
	"context"
	"errors"

	"score-handler/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the persistence contract used by the service layer.
type Store interface {
	GetUserRiskProfile(ctx context.Context, userID string) (*models.UserRiskProfile, error)
	UpsertUserRiskProfile(ctx context.Context, profile *models.UserRiskProfile) error

	GetAmortizationRecord(ctx context.Context, userID string) (*models.AmortizationRecord, error)
	UpsertAmortizationRecord(ctx context.Context, record *models.AmortizationRecord) error

	// ListReferencePopulation returns members in insertion order.
	ListReferencePopulation(ctx context.Context) ([]models.NonDefaulterProfile, error)
	InsertReferenceProfile(ctx context.Context, profile *models.NonDefaulterProfile) error
	ReplaceReferenceProfile(ctx context.Context, profile *models.NonDefaulterProfile) error
}
