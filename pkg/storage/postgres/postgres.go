// Package postgres provides a PostgreSQL implementation of
// transport.ResourceStore. It uses pgx/v5 for connection pooling and JSONB
// for resource metadata and values. The owner constraint from the context
// becomes part of every WHERE clause.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/debug"
	"github.com/rhuss/agentgate/pkg/storage"
	"github.com/rhuss/agentgate/pkg/transport"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed ResourceStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements transport.ResourceStore at compile time.
var _ transport.ResourceStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Create persists a new resource. The owner constraint in ctx, when
// present, is recorded as the resource owner.
func (s *Store) Create(ctx context.Context, r *api.Resource) error {
	owner := r.Owner
	if ctxOwner := storage.GetOwner(ctx); ctxOwner != "" {
		owner = ctxOwner
	}

	metadataJSON, valuesJSON, err := marshalDocument(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO resources (kind, id, owner, metadata, resource_values, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		string(r.Kind), r.ID, owner, metadataJSON, nullJSON(valuesJSON), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

// resolveOwner selects the owner of the row a (kind, id) lookup addresses.
// Under an owner constraint ($3) only that owner's row matches; unrestricted
// callers get the row owned by $4, then the unowned row, then the oldest.
const resolveOwner = `
	SELECT owner FROM resources
	WHERE kind = $1 AND id = $2 AND ($3 = '' OR owner = $3)
	ORDER BY owner = $4 DESC, owner = '' DESC, created_at
	LIMIT 1`

// Get retrieves a resource visible to the owner in ctx.
func (s *Store) Get(ctx context.Context, kind api.Kind, id string) (*api.Resource, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT kind, id, owner, metadata, resource_values, created_at, updated_at
		FROM resources
		WHERE kind = $1 AND id = $2 AND owner = (`+resolveOwner+`)
	`, string(kind), id, storage.GetOwner(ctx), "")

	res, err := scanResource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying resource: %w", err)
	}
	return res, nil
}

// Update replaces the metadata, values and updated_at of a visible resource.
func (s *Store) Update(ctx context.Context, r *api.Resource) error {
	metadataJSON, valuesJSON, err := marshalDocument(r)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE resources
		SET metadata = $5, resource_values = $6, updated_at = $7
		WHERE kind = $1 AND id = $2 AND owner = (`+resolveOwner+`)
	`,
		string(r.Kind), r.ID, storage.GetOwner(ctx), r.Owner, metadataJSON, nullJSON(valuesJSON), r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a visible resource.
func (s *Store) Delete(ctx context.Context, kind api.Kind, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM resources
		WHERE kind = $1 AND id = $2 AND owner = (`+resolveOwner+`)
	`, string(kind), id, storage.GetOwner(ctx), "")
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Search returns visible resources of the kind whose metadata contains the
// filter, newest first. One extra row is fetched to compute has_more.
func (s *Store) Search(ctx context.Context, kind api.Kind, opts transport.SearchOptions) ([]*api.Resource, bool, error) {
	filter := opts.Metadata
	if filter == nil {
		filter = map[string]any{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling metadata filter: %w", err)
	}

	var limit *int
	if opts.Limit > 0 {
		n := opts.Limit + 1
		limit = &n
	}

	rows, err := s.pool.Query(ctx, `
		SELECT kind, id, owner, metadata, resource_values, created_at, updated_at
		FROM resources
		WHERE kind = $1 AND ($2 = '' OR owner = $2) AND metadata @> $3::jsonb
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, string(kind), storage.GetOwner(ctx), filterJSON, limit, opts.Offset)
	if err != nil {
		return nil, false, fmt.Errorf("searching resources: %w", err)
	}
	defer rows.Close()

	var results []*api.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scanning resource: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating resources: %w", err)
	}

	hasMore := false
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
		hasMore = true
	}
	debug.Log(debug.Storage, "postgres search", "kind", kind, "results", len(results), "has_more", hasMore)
	return results, hasMore, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanResource reads one resources row.
func scanResource(row pgx.Row) (*api.Resource, error) {
	var (
		res          api.Resource
		kind         string
		metadataJSON []byte
		valuesJSON   []byte
	)
	if err := row.Scan(&kind, &res.ID, &res.Owner, &metadataJSON, &valuesJSON, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Kind = api.Kind(kind)
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()

	if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	if len(valuesJSON) > 0 {
		if err := json.Unmarshal(valuesJSON, &res.Values); err != nil {
			return nil, fmt.Errorf("unmarshaling values: %w", err)
		}
	}
	return &res, nil
}

// marshalDocument encodes a resource's metadata and values. Nil metadata is
// stored as an empty object.
func marshalDocument(r *api.Resource) (metadataJSON, valuesJSON []byte, err error) {
	md := r.Metadata
	if md == nil {
		md = map[string]any{}
	}
	metadataJSON, err = json.Marshal(md)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	if r.Values != nil {
		valuesJSON, err = json.Marshal(r.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling values: %w", err)
		}
	}
	return metadataJSON, valuesJSON, nil
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
