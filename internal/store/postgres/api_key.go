package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brplates/controller/internal/core"
	"github.com/brplates/controller/internal/model"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// APIKeyStore persists API key records in Postgres.
type APIKeyStore struct {
	db DB
}

func NewAPIKeyStore(db DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

const apiKeyColumns = "id, key_hash, description, call_limit, calls_made, is_active, created_at"

func scanAPIKey(row pgx.Row, k *model.APIKey) error {
	var description *string
	if err := row.Scan(&k.ID, &k.KeyHash, &description, &k.CallLimit, &k.CallsMade, &k.IsActive, &k.CreatedAt); err != nil {
		return err
	}
	if description != nil {
		k.Description = *description
	}
	return nil
}

// Insert creates a key record. The provisioning cap guard and the insert
// are a single statement rather than a read-then-write; concurrent
// commits can still overshoot the cap by a small margin without
// serializable isolation.
func (s *APIKeyStore) Insert(ctx context.Context, key *model.APIKey, maxKeys int) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, key_hash, description, call_limit)
		 SELECT $1, $2, NULLIF($3, ''), $4
		 WHERE $5 <= 0 OR (SELECT count(*) FROM api_keys) < $5
		 RETURNING calls_made, is_active, created_at`,
		key.ID, key.KeyHash, key.Description, key.CallLimit, maxKeys,
	).Scan(&key.CallsMade, &key.IsActive, &key.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrKeyLimitReached
	}
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// ListActive returns every active key record. The authorization path
// verifies the presented secret against each returned hash.
func (s *APIKeyStore) ListActive(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("list active api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := scanAPIKey(rows, &k); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

// ConsumeBudget spends one unit of the key's call budget. The limit check
// and the increment are a single statement, so two concurrent calls
// against a key with one remaining unit cannot both succeed. Returns nil
// when the key is missing, inactive, or exhausted.
func (s *APIKeyStore) ConsumeBudget(ctx context.Context, id string) (*model.APIKey, error) {
	var k model.APIKey
	err := scanAPIKey(s.db.QueryRow(ctx,
		`UPDATE api_keys
		 SET calls_made = calls_made + 1
		 WHERE id = $1 AND is_active AND calls_made < call_limit
		 RETURNING `+apiKeyColumns, id), &k)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume api key budget %s: %w", id, err)
	}
	return &k, nil
}

func (s *APIKeyStore) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	var k model.APIKey
	err := scanAPIKey(s.db.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id), &k)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("api key %s: %w", id, core.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api key %s: %w", id, err)
	}
	return &k, nil
}

// List retrieves API keys with cursor-based pagination.
func (s *APIKeyStore) List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys`
	args := []any{}
	if cursor != "" {
		query += ` WHERE id > $1`
		args = append(args, cursor)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := scanAPIKey(rows, &k); err != nil {
			return nil, false, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate api keys: %w", err)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

func (s *APIKeyStore) Deactivate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("deactivate api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already inactive", id)
	}
	return nil
}
