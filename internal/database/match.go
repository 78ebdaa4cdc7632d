// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wordrush-io/wordrush/internal/outbox"
)

// RecordMatchResult persists the final outcome of a match: one row per
// team with its score and whether it won. The engine has already
// committed this state locally; this write is the durable mirror.
func RecordMatchResult(ctx context.Context, matchID uuid.UUID, winner string, scores map[string]int) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, status, winner)
			VALUES ($1, 'completed', $2)
			ON CONFLICT (id) DO UPDATE SET status = 'completed', winner = $2
		`
		if _, e := tx.Exec(ctx, upsertMatch, matchID, winner); e != nil {
			return e
		}

		for team, score := range scores {
			q := `
				INSERT INTO match_results (match_id, team, score, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, team)
				DO UPDATE SET score=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, q, matchID, team, score, team == winner); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert match or results: %w", err)
	}
	return nil
}

// InsertMatchEvents batch-inserts mirrored events from the Redis queue.
func InsertMatchEvents(ctx context.Context, records []outbox.Record) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO match_events (match_id, event_type, payload, occurred_at)
			VALUES ($1, $2, $3, to_timestamp($4::double precision / 1000))
		`
		for _, rec := range records {
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("marshal payload for %s: %w", rec.MatchID, err)
			}
			if _, err := tx.Exec(ctx, q, rec.MatchID, rec.EventType, payload, rec.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert match events: %w", err)
	}
	return nil
}

// MarkMatchAbandoned flags a match that stopped producing events before
// finishing.
func MarkMatchAbandoned(ctx context.Context, matchID uuid.UUID) error {
	q := `
		INSERT INTO matches (id, status)
		VALUES ($1, 'abandoned')
		ON CONFLICT (id) DO UPDATE SET status = 'abandoned'
		WHERE matches.status <> 'completed'
	`
	if _, err := DB.Exec(ctx, q, matchID); err != nil {
		return fmt.Errorf("mark match %s abandoned: %w", matchID, err)
	}
	return nil
}
