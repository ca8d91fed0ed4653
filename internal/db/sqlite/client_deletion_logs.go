package sqlite

import (
	"context"

	"github.com/iamwavecut/pquota/internal/db"
	errs "github.com/iamwavecut/pquota/internal/errors"
)

func (c *sqliteClient) InsertDeletionLog(ctx context.Context, entry *db.DeletionLogEntry) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO deletion_logs (ts, guild_id, channel_id, user_id, excerpt)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := c.db.ExecContext(ctx, query,
		entry.TS,
		entry.CommunityID,
		entry.ChannelID,
		entry.UserID,
		entry.Excerpt,
	)
	if err != nil {
		return 0, errs.Storage("insert deletion log", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errs.Storage("insert deletion log", err)
	}
	return id, nil
}

func (c *sqliteClient) ListDeletionLogs(ctx context.Context, communityID int64, limit int) ([]*db.DeletionLogEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var entries []*db.DeletionLogEntry
	err := c.db.SelectContext(ctx, &entries, `
		SELECT id, ts, guild_id, channel_id, user_id, excerpt
		FROM deletion_logs
		WHERE guild_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, communityID, limit)
	if err != nil {
		return nil, errs.Storage("list deletion logs", err)
	}
	return entries, nil
}

func (c *sqliteClient) DeleteDeletionLogsBefore(ctx context.Context, cutoff int64) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	result, err := c.db.ExecContext(ctx, `DELETE FROM deletion_logs WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, errs.Storage("delete deletion logs", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errs.Storage("delete deletion logs", err)
	}
	return n, nil
}
