package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidgate/backend/internal/db"
	"github.com/vidgate/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, asset_url, visibility, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, video.ID, video.OwnerID, video.Title, video.AssetURL, video.Visibility, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by its identifier. The access path calls this on
// every request so visibility changes take effect immediately.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, asset_url, visibility, created_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.AssetURL, &video.Visibility, &video.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// ListForOwner returns the owner's videos in reverse chronological order.
func (r *PostgresVideoRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, asset_url, visibility, created_at
        FROM videos
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.OwnerID, &video.Title, &video.AssetURL, &video.Visibility, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// UpdateVisibility changes a video's visibility tier.
func (r *PostgresVideoRepository) UpdateVisibility(ctx context.Context, id, visibility string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET visibility = $2
        WHERE id = $1
    `, id, visibility)
	if err != nil {
		return fmt.Errorf("update video visibility: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresShareTokenRepository provides PostgreSQL-backed persistence for
// share tokens.
type PostgresShareTokenRepository struct {
	pool db.Pool
}

// NewPostgresShareTokenRepository constructs a share token repository backed by PostgreSQL.
func NewPostgresShareTokenRepository(pool db.Pool) *PostgresShareTokenRepository {
	return &PostgresShareTokenRepository{pool: pool}
}

const shareTokenColumns = `id, token, video_id, created_by, expires_at, max_views, view_count, revoked, created_at`

// Create persists a new share token.
func (r *PostgresShareTokenRepository) Create(ctx context.Context, token models.ShareToken) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO share_tokens (id, token, video_id, created_by, expires_at, max_views, view_count, revoked, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, false, $7)
    `, token.ID, token.Token, token.VideoID, token.CreatedBy, token.ExpiresAt, token.MaxViews, token.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert share token: %w", err)
	}

	return nil
}

// FindByID fetches a share token by its internal identifier.
func (r *PostgresShareTokenRepository) FindByID(ctx context.Context, id string) (models.ShareToken, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ShareToken{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+shareTokenColumns+`
        FROM share_tokens
        WHERE id = $1
    `, id)

	token, err := scanShareToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ShareToken{}, ErrNotFound
		}
		return models.ShareToken{}, fmt.Errorf("select share token: %w", err)
	}

	return token, nil
}

// ListForVideo returns every token issued for the video, newest first.
func (r *PostgresShareTokenRepository) ListForVideo(ctx context.Context, videoID string) ([]models.ShareToken, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+shareTokenColumns+`
        FROM share_tokens
        WHERE video_id = $1
        ORDER BY created_at DESC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query share tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.ShareToken
	for rows.Next() {
		token, err := scanShareToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share tokens: %w", err)
	}

	return tokens, nil
}

// Consume performs the atomic view consumption. The UPDATE's WHERE clause
// re-asserts every predicate at the database layer, so a stale application
// read can never over-consume: under N concurrent callers at most the
// remaining quota succeeds. When no row is affected a follow-up read
// classifies the refusal; that read is for reporting only and mutates
// nothing.
func (r *PostgresShareTokenRepository) Consume(ctx context.Context, token, videoID string) (models.TokenOutcome, models.ShareToken, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.TokenOutcomeStorageError, models.ShareToken{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE share_tokens
        SET view_count = view_count + 1
        WHERE token = $1
          AND video_id = $2
          AND NOT revoked
          AND (expires_at IS NULL OR expires_at > now())
          AND (max_views IS NULL OR view_count < max_views)
        RETURNING `+shareTokenColumns+`
    `, token, videoID)

	consumed, err := scanShareToken(row)
	if err == nil {
		return models.TokenOutcomeValid, consumed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.TokenOutcomeStorageError, models.ShareToken{}, fmt.Errorf("consume share token: %w", err)
	}

	row = conn.QueryRow(ctx, `
        SELECT `+shareTokenColumns+`
        FROM share_tokens
        WHERE token = $1 AND video_id = $2
    `, token, videoID)

	existing, err := scanShareToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TokenOutcomeNotFound, models.ShareToken{}, nil
		}
		return models.TokenOutcomeStorageError, models.ShareToken{}, fmt.Errorf("classify share token refusal: %w", err)
	}

	switch {
	case existing.Revoked:
		return models.TokenOutcomeRevoked, existing, nil
	case existing.ExpiresAt != nil && !existing.ExpiresAt.After(time.Now().UTC()):
		return models.TokenOutcomeExpired, existing, nil
	default:
		return models.TokenOutcomeQuotaExceeded, existing, nil
	}
}

// Revoke flips the one-way revoked flag. Already-revoked tokens still match,
// so repeated revocations succeed.
func (r *PostgresShareTokenRepository) Revoke(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE share_tokens
        SET revoked = true
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("revoke share token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteExpired removes a batch of tokens past their expiry.
func (r *PostgresShareTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time, limit int) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM share_tokens
        WHERE id IN (
            SELECT id FROM share_tokens
            WHERE expires_at IS NOT NULL AND expires_at <= $1
            LIMIT $2
        )
    `, olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired share tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanShareToken(row pgx.Row) (models.ShareToken, error) {
	var (
		token     models.ShareToken
		expiresAt sql.NullTime
		maxViews  sql.NullInt64
	)

	if err := row.Scan(&token.ID, &token.Token, &token.VideoID, &token.CreatedBy, &expiresAt, &maxViews, &token.ViewCount, &token.Revoked, &token.CreatedAt); err != nil {
		return models.ShareToken{}, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		token.ExpiresAt = &t
	}
	if maxViews.Valid {
		v := int(maxViews.Int64)
		token.MaxViews = &v
	}

	return token, nil
}

// PostgresAccessLogRepository provides PostgreSQL-backed persistence for
// access-log entries.
type PostgresAccessLogRepository struct {
	pool db.Pool
}

// NewPostgresAccessLogRepository constructs an access log repository backed by PostgreSQL.
func NewPostgresAccessLogRepository(pool db.Pool) *PostgresAccessLogRepository {
	return &PostgresAccessLogRepository{pool: pool}
}

// Insert appends an access-log entry.
func (r *PostgresAccessLogRepository) Insert(ctx context.Context, entry models.AccessLogEntry) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO video_access_logs (id, video_id, viewer_identity, access_method, share_token_id, client_address, user_agent, referrer, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
    `, entry.ID, entry.VideoID, entry.ViewerIdentity, entry.Method, entry.ShareTokenID, entry.ClientAddress, entry.UserAgent, entry.Referrer, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert access log entry: %w", err)
	}

	return nil
}

// ListOlderThan returns a batch of entries past the retention cutoff, oldest
// first, for archival.
func (r *PostgresAccessLogRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.AccessLogEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, COALESCE(viewer_identity, ''), access_method, COALESCE(share_token_id, ''),
               COALESCE(client_address, ''), COALESCE(user_agent, ''), COALESCE(referrer, ''), created_at
        FROM video_access_logs
        WHERE created_at < $1
        ORDER BY created_at ASC
        LIMIT $2
    `, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query access log entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AccessLogEntry
	for rows.Next() {
		var entry models.AccessLogEntry
		if err := rows.Scan(&entry.ID, &entry.VideoID, &entry.ViewerIdentity, &entry.Method, &entry.ShareTokenID, &entry.ClientAddress, &entry.UserAgent, &entry.Referrer, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access log entries: %w", err)
	}

	return entries, nil
}

// DeleteBatch removes the identified entries after they have been archived.
func (r *PostgresAccessLogRepository) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM video_access_logs
        WHERE id = ANY($1)
    `, ids)
	if err != nil {
		return fmt.Errorf("delete access log entries: %w", err)
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ ShareTokenRepository = (*PostgresShareTokenRepository)(nil)
var _ AccessLogRepository = (*PostgresAccessLogRepository)(nil)
