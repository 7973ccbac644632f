package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type countersRepo struct{ repoBase }

func (r *countersRepo) GetCounter(ctx context.Context, key string) (int, error) {
	var attempts int
	err := r.queryRow(ctx,
		`SELECT attempts FROM rate_limit_counters WHERE counter_key = ? AND expires_at > ?`,
		key, toMillis(r.now()),
	).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return attempts, err
}

// IncrementCounter is a single upsert so concurrent failures never lose an
// increment. A row that has already expired restarts at one.
func (r *countersRepo) IncrementCounter(ctx context.Context, key string, ttl time.Duration) (int, error) {
	now := r.now()

	var attempts int
	err := r.queryRow(ctx, `
		INSERT INTO rate_limit_counters (counter_key, attempts, expires_at)
		VALUES (?, 1, ?)
		ON CONFLICT (counter_key) DO UPDATE SET
			attempts = CASE
				WHEN rate_limit_counters.expires_at <= ? THEN 1
				ELSE rate_limit_counters.attempts + 1
			END,
			expires_at = excluded.expires_at
		RETURNING attempts`,
		key, toMillis(now.Add(ttl)), toMillis(now),
	).Scan(&attempts)
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *countersRepo) CounterTTL(ctx context.Context, key string) (time.Duration, error) {
	now := r.now()

	var expires int64
	err := r.queryRow(ctx,
		`SELECT expires_at FROM rate_limit_counters WHERE counter_key = ? AND expires_at > ?`,
		key, toMillis(now),
	).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fromMillis(expires).Sub(now), nil
}

func (r *countersRepo) DeleteCounter(ctx context.Context, key string) error {
	_, err := r.exec(ctx, `DELETE FROM rate_limit_counters WHERE counter_key = ?`, key)
	return err
}

func (r *countersRepo) DeleteExpiredCounters(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM rate_limit_counters WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
