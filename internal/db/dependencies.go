package db

import "context"

type Client interface {
	Close() error

	AddRestrictedChannel(ctx context.Context, key RestrictionKey) error
	RemoveRestrictedChannel(ctx context.Context, key RestrictionKey) error
	ListRestrictedChannels(ctx context.Context) ([]RestrictionKey, error)

	InsertDeletionLog(ctx context.Context, entry *DeletionLogEntry) (int64, error)
	ListDeletionLogs(ctx context.Context, communityID int64, limit int) ([]*DeletionLogEntry, error)
	DeleteDeletionLogsBefore(ctx context.Context, cutoff int64) (int64, error)
}
