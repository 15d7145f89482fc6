package storage

import "github.com/branddi/taskdash/backend/internal/types"

// Store defines the persistence interface for raw activity rows.
// Periods are free-form labels (typically YYYY-MM); saving a period
// overwrites any rows previously stored under that label.
type Store interface {
	SaveActivities(period string, rows []types.ActivityRow) error
	GetActivities(period string) ([]types.ActivityRow, error)
	ListPeriods() ([]string, error)
	DeletePeriod(period string) (int, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveActivities(_ string, _ []types.ActivityRow) error { return nil }
func (s *NoopStore) GetActivities(_ string) ([]types.ActivityRow, error)  { return nil, nil }
func (s *NoopStore) ListPeriods() ([]string, error)                       { return nil, nil }
func (s *NoopStore) DeletePeriod(_ string) (int, error)                   { return 0, nil }
func (s *NoopStore) TruncateAll() error                                   { return nil }
