package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizdash/pkg/crypto"
	"bizdash/pkg/db"
	"bizdash/pkg/idgen"
)

var _ Store = (*Repository)(nil)

// Repository is the Postgres Store. Access and refresh tokens are sealed
// before they reach the database.
type Repository struct {
	db     db.SQLExecutor
	sealer *crypto.Sealer
	ids    idgen.Generator
	now    func() time.Time
}

func NewRepository(executor db.SQLExecutor, sealer *crypto.Sealer, ids idgen.Generator) *Repository {
	return &Repository{
		db:     executor,
		sealer: sealer,
		ids:    ids,
		now:    time.Now,
	}
}

const upsertQuery = `
INSERT INTO integrations (
	id, user_id, app_name, app_type, is_connected,
	oauth_token, refresh_token, token_expires_at, config, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (user_id, app_name) DO UPDATE SET
	app_type = EXCLUDED.app_type,
	is_connected = EXCLUDED.is_connected,
	oauth_token = EXCLUDED.oauth_token,
	refresh_token = CASE WHEN EXCLUDED.app_type = 'api' THEN NULL
		ELSE COALESCE(EXCLUDED.refresh_token, integrations.refresh_token) END,
	token_expires_at = EXCLUDED.token_expires_at,
	config = EXCLUDED.config,
	updated_at = EXCLUDED.updated_at`

const selectColumns = `
SELECT id, user_id, app_name, app_type, is_connected,
	oauth_token, refresh_token, token_expires_at, config, created_at, updated_at
FROM integrations`

const getQuery = selectColumns + ` WHERE user_id = $1 AND app_name = $2`

const listQuery = selectColumns + ` WHERE user_id = $1 ORDER BY app_name`

const updateTokensQuery = `
UPDATE integrations SET
	oauth_token = $3,
	refresh_token = COALESCE($4, refresh_token),
	token_expires_at = $5,
	updated_at = $6
WHERE user_id = $1 AND app_name = $2 AND is_connected`

const disconnectQuery = `
UPDATE integrations SET is_connected = FALSE, updated_at = $3
WHERE user_id = $1 AND app_name = $2`

const disconnectClearQuery = `
UPDATE integrations SET is_connected = FALSE, oauth_token = NULL, updated_at = $3
WHERE user_id = $1 AND app_name = $2`

// Upsert inserts or replaces the record for (UserID, Provider). A blank
// RefreshToken leaves the stored refresh token in place, except for API key
// records which never carry one.
func (r *Repository) Upsert(ctx context.Context, rec *Record) error {
	access, err := r.seal(rec.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := r.seal(rec.RefreshToken)
	if err != nil {
		return err
	}
	config, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("failed to encode integration config: %w", err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx, upsertQuery,
		r.ids.GenerateID(),
		rec.UserID,
		rec.Provider,
		rec.AppType,
		rec.IsConnected,
		access,
		refresh,
		nullTime(rec.ExpiresAt),
		config,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	rec.UpdatedAt = now
	return nil
}

func (r *Repository) Get(ctx context.Context, userID, provider string) (*Record, error) {
	rec, err := r.scanRecord(r.db.QueryRowContext(ctx, getQuery, userID, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	return rec, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, listQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateTokens(ctx context.Context, userID, provider string, update TokenUpdate) error {
	access, err := r.seal(update.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := r.seal(update.RefreshToken)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, updateTokensQuery,
		userID,
		provider,
		access,
		refresh,
		nullTime(update.ExpiresAt),
		r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update integration tokens: %w", err)
	}
	return expectOneRow(res)
}

func (r *Repository) MarkDisconnected(ctx context.Context, userID, provider string, clearAccessToken bool) error {
	query := disconnectQuery
	if clearAccessToken {
		query = disconnectClearQuery
	}
	res, err := r.db.ExecContext(ctx, query, userID, provider, r.now())
	if err != nil {
		return fmt.Errorf("failed to disconnect integration: %w", err)
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		access    sql.NullString
		refresh   sql.NullString
		expiresAt sql.NullTime
		config    []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Provider,
		&rec.AppType,
		&rec.IsConnected,
		&access,
		&refresh,
		&expiresAt,
		&config,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.AccessToken, err = r.sealer.Open(access.String); err != nil {
		return nil, fmt.Errorf("failed to open access token: %w", err)
	}
	if rec.RefreshToken, err = r.sealer.Open(refresh.String); err != nil {
		return nil, fmt.Errorf("failed to open refresh token: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &rec.Config); err != nil {
			return nil, fmt.Errorf("failed to decode integration config: %w", err)
		}
	}
	return &rec, nil
}

// seal maps "" to NULL so COALESCE can keep an existing value.
func (r *Repository) seal(plaintext string) (sql.NullString, error) {
	if plaintext == "" {
		return sql.NullString{}, nil
	}
	sealed, err := r.sealer.Seal(plaintext)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to seal token: %w", err)
	}
	return sql.NullString{String: sealed, Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
