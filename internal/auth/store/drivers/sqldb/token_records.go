package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/idx"
)

type tokenRecordsRepo struct{ repoBase }

const tokenRecordColumns = `id, user_id, token_hash, created_at, expires_at, last_used_at, ip_address`

// newestFirst is the one ordering used for "most recently created". ids are
// ULIDs, so they break ties inside a millisecond in creation order.
const newestFirst = `ORDER BY created_at DESC, id DESC`

func scanTokenRecord(row rowScanner) (domain.TokenRecord, error) {
	var (
		rec              domain.TokenRecord
		created, expires int64
		lastUsed         sql.NullInt64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &created, &expires, &lastUsed, &rec.IPAddress); err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.ExpiresAt = fromMillis(expires)
	rec.LastUsedAt = mapNullMillis(lastUsed)
	return rec, nil
}

func (r *tokenRecordsRepo) CreateTokenRecord(ctx context.Context, rec domain.TokenRecord) (domain.TokenRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.CreatedAt = fromMillis(toMillis(rec.CreatedAt))
	rec.ExpiresAt = fromMillis(toMillis(rec.ExpiresAt))
	rec.ID = idx.NewAt(rec.CreatedAt).String()

	var lastUsed sql.NullInt64
	if rec.LastUsedAt != nil {
		lastUsed = sql.NullInt64{Int64: toMillis(*rec.LastUsedAt), Valid: true}
	}

	_, err := r.exec(ctx, `
		INSERT INTO token_records (id, user_id, token_hash, created_at, expires_at, last_used_at, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.TokenHash, toMillis(rec.CreatedAt), toMillis(rec.ExpiresAt), lastUsed, rec.IPAddress,
	)
	if err != nil {
		return domain.TokenRecord{}, r.mapWriteErr(err)
	}
	return rec, nil
}

func (r *tokenRecordsRepo) GetTokenRecord(ctx context.Context, id string) (domain.TokenRecord, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.TokenRecord{}, store.ErrNotFound
	}
	return scanTokenRecord(r.queryRow(ctx, `SELECT `+tokenRecordColumns+` FROM token_records WHERE id = ?`, id))
}

func (r *tokenRecordsRepo) GetTokenRecordByHash(ctx context.Context, hash string) (domain.TokenRecord, error) {
	return scanTokenRecord(r.queryRow(ctx, `SELECT `+tokenRecordColumns+` FROM token_records WHERE token_hash = ?`, hash))
}

func (r *tokenRecordsRepo) ListUserTokenRecords(ctx context.Context, userID int64) ([]domain.TokenRecord, error) {
	rows, err := r.query(ctx, `SELECT `+tokenRecordColumns+` FROM token_records WHERE user_id = ? `+newestFirst, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TokenRecord
	for rows.Next() {
		rec, err := scanTokenRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *tokenRecordsRepo) DeleteTokenRecord(ctx context.Context, id string) error {
	return requireAffected(r.exec(ctx, `DELETE FROM token_records WHERE id = ?`, id))
}

func (r *tokenRecordsRepo) TrimUserTokenRecords(ctx context.Context, userID int64, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.exec(ctx, `
		DELETE FROM token_records
		WHERE user_id = ?
		  AND id NOT IN (
			SELECT id FROM token_records WHERE user_id = ? `+newestFirst+` LIMIT ?
		  )`,
		userID, userID, keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tokenRecordsRepo) DeleteExpiredTokenRecords(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM token_records WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tokenRecordsRepo) TouchLastUsed(ctx context.Context, userID int64, now time.Time) error {
	return requireAffected(r.exec(ctx, `
		UPDATE token_records SET last_used_at = ?
		WHERE id = (SELECT id FROM token_records WHERE user_id = ? `+newestFirst+` LIMIT 1)`,
		toMillis(now), userID,
	))
}

func (r *tokenRecordsRepo) TouchLastUsedByHash(ctx context.Context, hash string, now time.Time) error {
	return requireAffected(r.exec(ctx,
		`UPDATE token_records SET last_used_at = ? WHERE token_hash = ?`,
		toMillis(now), hash,
	))
}
