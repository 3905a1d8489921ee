package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// FlaggedRow is one channel row as stored server-side.
type FlaggedRow struct {
	ChannelID   string
	ChannelName string
	Flagged     bool
	FlaggedDate time.Time
	Reason      string
	Votes       int
	LastUpdated time.Time
}

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// EnsureSchema creates the tables on first start. The deployment is a
// single small service, so migrations stay in-process.
func (r *ChannelRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS channels (
			channel_id   VARCHAR(64) PRIMARY KEY,
			channel_name VARCHAR(128) NOT NULL DEFAULT '',
			flagged      BOOLEAN NOT NULL DEFAULT FALSE,
			flagged_date TIMESTAMPTZ,
			reason       VARCHAR(256) NOT NULL DEFAULT '',
			votes        INTEGER NOT NULL DEFAULT 0,
			last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS channel_votes (
			channel_id VARCHAR(64) NOT NULL REFERENCES channels(channel_id),
			voter_hash CHAR(64) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (channel_id, voter_hash)
		)`)
	return err
}

// ListFlagged returns every flagged channel keyed by channel id, in the
// shape agents consume.
func (r *ChannelRepo) ListFlagged(ctx context.Context) (map[string]model.RemoteChannel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel_id, channel_name, flagged_date, reason, votes
		FROM channels
		WHERE flagged = TRUE
		ORDER BY flagged_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.RemoteChannel)
	for rows.Next() {
		var id, name, reason string
		var flaggedDate *time.Time
		var votes int
		if err := rows.Scan(&id, &name, &flaggedDate, &reason, &votes); err != nil {
			return nil, err
		}
		rc := model.RemoteChannel{
			ChannelName: name,
			Reason:      reason,
			Votes:       votes,
		}
		if flaggedDate != nil {
			rc.FlaggedDate = flaggedDate.UTC().Format(time.RFC3339)
		}
		out[id] = rc
	}
	return out, rows.Err()
}

// Find returns a single channel row. Returns pgx.ErrNoRows when the
// channel has never been seen.
func (r *ChannelRepo) Find(ctx context.Context, channelID string) (*FlaggedRow, error) {
	var row FlaggedRow
	var flaggedDate *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT channel_id, channel_name, flagged, flagged_date, reason, votes, last_updated
		FROM channels
		WHERE channel_id = $1`, channelID).Scan(
		&row.ChannelID, &row.ChannelName, &row.Flagged, &flaggedDate,
		&row.Reason, &row.Votes, &row.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if flaggedDate != nil {
		row.FlaggedDate = *flaggedDate
	}
	return &row, nil
}

// AddVote records one vote for a channel, deduped per voter hash. The
// channel row is created on its first vote. When the vote count reaches
// threshold the channel is flagged server-side, exactly once.
// Returns the resulting vote count.
func (r *ChannelRepo) AddVote(ctx context.Context, channelID, channelName, voterHash string, threshold int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// Ensure the channel exists, refreshing the name when a better one
	// arrives (first vote may carry an empty name).
	_, err = tx.Exec(ctx, `
		INSERT INTO channels (channel_id, channel_name) VALUES ($1, $2)
		ON CONFLICT (channel_id) DO UPDATE
		SET channel_name = CASE
			WHEN channels.channel_name = '' AND EXCLUDED.channel_name <> ''
			THEN EXCLUDED.channel_name
			ELSE channels.channel_name
		END,
		last_updated = NOW()`,
		channelID, channelName)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO channel_votes (channel_id, voter_hash) VALUES ($1, $2)
		ON CONFLICT (channel_id, voter_hash) DO NOTHING`,
		channelID, voterHash)
	if err != nil {
		return 0, err
	}

	var votes int
	if tag.RowsAffected() > 0 {
		err = tx.QueryRow(ctx, `
			UPDATE channels SET votes = votes + 1, last_updated = NOW()
			WHERE channel_id = $1
			RETURNING votes`, channelID).Scan(&votes)
	} else {
		// Repeat voter: count unchanged.
		err = tx.QueryRow(ctx, `
			SELECT votes FROM channels WHERE channel_id = $1`, channelID).Scan(&votes)
	}
	if err != nil {
		return 0, err
	}

	if votes >= threshold {
		_, err = tx.Exec(ctx, `
			UPDATE channels
			SET flagged = TRUE, flagged_date = NOW(), reason = 'community votes'
			WHERE channel_id = $1 AND flagged = FALSE`, channelID)
		if err != nil {
			return 0, err
		}
	}

	return votes, tx.Commit(ctx)
}

// Flag marks a channel flagged directly, used by moderation tooling.
func (r *ChannelRepo) Flag(ctx context.Context, channelID, channelName, reason string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO channels (channel_id, channel_name, flagged, flagged_date, reason)
		VALUES ($1, $2, TRUE, NOW(), $3)
		ON CONFLICT (channel_id) DO UPDATE
		SET flagged = TRUE,
		    flagged_date = COALESCE(channels.flagged_date, NOW()),
		    reason = EXCLUDED.reason,
		    last_updated = NOW()`,
		channelID, channelName, reason)
	return err
}

// Stats aggregates headline numbers for the stats endpoint.
type Stats struct {
	TotalChannels   int `json:"totalChannels"`
	FlaggedChannels int `json:"flaggedChannels"`
	TotalVotes      int `json:"totalVotes"`
}

func (r *ChannelRepo) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE flagged),
			COALESCE(SUM(votes), 0)
		FROM channels`).Scan(&s.TotalChannels, &s.FlaggedChannels, &s.TotalVotes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
