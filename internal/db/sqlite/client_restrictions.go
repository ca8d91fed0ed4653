package sqlite

import (
	"context"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/pquota/internal/db"
	errs "github.com/iamwavecut/pquota/internal/errors"
)

func (c *sqliteClient) AddRestrictedChannel(ctx context.Context, key db.RestrictionKey) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `INSERT OR IGNORE INTO restricted_channels (guild_id, channel_id) VALUES (:guild_id, :channel_id)`
	return errs.Storage("add restricted channel", tool.Err(c.db.NamedExecContext(ctx, query, key)))
}

func (c *sqliteClient) RemoveRestrictedChannel(ctx context.Context, key db.RestrictionKey) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx,
		`DELETE FROM restricted_channels WHERE guild_id = ? AND channel_id = ?`,
		key.CommunityID, key.ChannelID,
	)
	return errs.Storage("remove restricted channel", err)
}

func (c *sqliteClient) ListRestrictedChannels(ctx context.Context) ([]db.RestrictionKey, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var keys []db.RestrictionKey
	if err := c.db.SelectContext(ctx, &keys, `SELECT guild_id, channel_id FROM restricted_channels`); err != nil {
		return nil, errs.Storage("list restricted channels", err)
	}
	return keys, nil
}
