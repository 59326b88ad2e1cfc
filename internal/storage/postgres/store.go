package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rollhouse/voice-relay/internal/models"
)

// Store provides the friend-relationship lookup and the append-only call
// audit log backing the relay.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	migrations := []string{
		// Friend relationships, one row per accepted pair
		`CREATE TABLE IF NOT EXISTS friends (
			user_email VARCHAR(255) NOT NULL,
			friend_email VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'accepted',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_email, friend_email)
		)`,

		// Append-only audit trail of signaling activity
		`CREATE TABLE IF NOT EXISTS voice_call_logs (
			id VARCHAR(36) PRIMARY KEY,
			from_email VARCHAR(255) NOT NULL,
			to_email VARCHAR(255) NOT NULL,
			signal_type VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			duration_ms BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_voice_call_logs_from
		ON voice_call_logs(from_email, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// AreFriends reports whether an accepted friend relationship exists between
// the two identities, in either direction.
func (s *Store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friends
			WHERE ((user_email = $1 AND friend_email = $2)
			    OR (user_email = $2 AND friend_email = $1))
			  AND status = 'accepted'
		)`, a, b).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Record appends one audit entry. duration_ms is NULL except for call-end.
func (s *Store) Record(ctx context.Context, entry models.CallLogEntry) error {
	var duration sql.NullInt64
	if entry.DurationMS != nil {
		duration = sql.NullInt64{Int64: *entry.DurationMS, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voice_call_logs (id, from_email, to_email, signal_type, created_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), entry.From, entry.To, string(entry.SignalType),
		entry.Timestamp, duration)
	return err
}

// AddFriend records an accepted relationship. Used by provisioning tooling
// and tests; the game backend normally writes this table.
func (s *Store) AddFriend(ctx context.Context, userEmail, friendEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO friends (user_email, friend_email, status, created_at)
		VALUES ($1, $2, 'accepted', $3)
		ON CONFLICT (user_email, friend_email) DO UPDATE SET status = 'accepted'`,
		userEmail, friendEmail, time.Now())
	return err
}
