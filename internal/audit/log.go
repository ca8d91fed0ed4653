// Package audit keeps the short-retention record of enforced deletions.
package audit

import (
	"context"
	"unicode/utf8"

	"github.com/iamwavecut/pquota/internal/db"
)

const (
	// MaxExcerptLength bounds stored excerpts, counted in runes.
	MaxExcerptLength = 200
	// MaxFetchLimit bounds FetchRecent regardless of the requested limit.
	MaxFetchLimit = 200
)

type logStore interface {
	InsertDeletionLog(ctx context.Context, entry *db.DeletionLogEntry) (int64, error)
	ListDeletionLogs(ctx context.Context, communityID int64, limit int) ([]*db.DeletionLogEntry, error)
	DeleteDeletionLogsBefore(ctx context.Context, cutoff int64) (int64, error)
}

type Log struct {
	store logStore
}

func NewLog(store logStore) *Log {
	return &Log{store: store}
}

// Append stores one deletion. Storage failures are returned, never dropped.
func (l *Log) Append(ctx context.Context, ts, communityID, channelID, userID int64, excerpt string) error {
	_, err := l.store.InsertDeletionLog(ctx, &db.DeletionLogEntry{
		TS:          ts,
		CommunityID: communityID,
		ChannelID:   channelID,
		UserID:      userID,
		Excerpt:     Truncate(excerpt, MaxExcerptLength),
	})
	return err
}

// FetchRecent returns the newest entries of a community, newest first by id.
func (l *Log) FetchRecent(ctx context.Context, communityID int64, limit int) ([]*db.DeletionLogEntry, error) {
	return l.store.ListDeletionLogs(ctx, communityID, ClampLimit(limit))
}

// PruneOlderThan removes entries with a timestamp strictly before cutoff.
func (l *Log) PruneOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	return l.store.DeleteDeletionLogsBefore(ctx, cutoff)
}

func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxFetchLimit:
		return MaxFetchLimit
	default:
		return limit
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
