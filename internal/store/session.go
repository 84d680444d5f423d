package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// SessionStore keeps encoded session records in the sessions table. It is
// the fallback when no Redis is configured.
type SessionStore struct {
	s *Store
}

func (s *Store) Sessions() *SessionStore {
	return &SessionStore{s: s}
}

func (ss *SessionStore) Find(ctx context.Context, id string) ([]byte, bool, error) {
	var data []byte
	err := ss.s.pool.QueryRow(ctx,
		`SELECT data FROM sessions WHERE id = $1 AND expires_at > now()`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("store.Sessions.Find", err)
	}
	return data, true, nil
}

// Commit upserts the record.
func (ss *SessionStore) Commit(ctx context.Context, id string, data []byte, expiry time.Time) error {
	_, err := ss.s.pool.Exec(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		id, data, expiry,
	)
	return classify("store.Sessions.Commit", err)
}

func (ss *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := ss.s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return classify("store.Sessions.Delete", err)
}

func (ss *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := ss.s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, classify("store.Sessions.DeleteExpired", err)
	}
	return tag.RowsAffected(), nil
}

// SweepExpired deletes expired rows every interval until ctx is done.
func (ss *SessionStore) SweepExpired(ctx context.Context, interval time.Duration, onErr func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := ss.DeleteExpired(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
