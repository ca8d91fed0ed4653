package db

type (
	// RestrictionKey identifies a restricted channel inside a community.
	RestrictionKey struct {
		CommunityID int64 `db:"guild_id"`
		ChannelID   int64 `db:"channel_id"`
	}

	// DeletionLogEntry is an immutable record of one enforced deletion.
	DeletionLogEntry struct {
		ID          int64  `db:"id"`
		TS          int64  `db:"ts"`
		CommunityID int64  `db:"guild_id"`
		ChannelID   int64  `db:"channel_id"`
		UserID      int64  `db:"user_id"`
		Excerpt     string `db:"excerpt"`
	}
)
