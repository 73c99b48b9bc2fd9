package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore is the pgvector-backed VectorStore.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgresStore connects to PostgreSQL, ensures the schema exists, and
// returns a store for vectors of the given dimensionality.
func NewPostgresStore(ctx context.Context, connString string, dim int) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, dim: dim}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the vector extension, the points table, and its indexes
// if they do not exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS frame_points (
            id BIGINT PRIMARY KEY,
            frame_id TEXT NOT NULL,
            video_id TEXT NOT NULL,
            video_title TEXT NOT NULL,
            video_url TEXT NOT NULL,
            file_path TEXT NOT NULL,
            frame_number INTEGER NOT NULL,
            timestamp_seconds INTEGER NOT NULL,
            timestamp_formatted TEXT NOT NULL,
            embedding vector(%d) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`, s.dim))
	if err != nil {
		return fmt.Errorf("failed to create frame_points table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS idx_frame_points_video_id ON frame_points(video_id);
        CREATE INDEX IF NOT EXISTS idx_frame_points_timestamp ON frame_points(timestamp_seconds, frame_number);
        CREATE INDEX IF NOT EXISTS idx_frame_points_embedding ON frame_points USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
    `)
	if err != nil {
		return fmt.Errorf("failed to create frame_points indexes: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO frame_points
             (id, frame_id, video_id, video_title, video_url, file_path,
              frame_number, timestamp_seconds, timestamp_formatted, embedding)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
             ON CONFLICT (id) DO UPDATE SET
                frame_id = EXCLUDED.frame_id,
                video_id = EXCLUDED.video_id,
                video_title = EXCLUDED.video_title,
                video_url = EXCLUDED.video_url,
                file_path = EXCLUDED.file_path,
                frame_number = EXCLUDED.frame_number,
                timestamp_seconds = EXCLUDED.timestamp_seconds,
                timestamp_formatted = EXCLUDED.timestamp_formatted,
                embedding = EXCLUDED.embedding`,
			int64(p.ID), p.Payload.FrameID, p.Payload.VideoID, p.Payload.VideoTitle,
			p.Payload.VideoURL, p.Payload.FilePath, p.Payload.FrameNumber,
			p.Payload.TimestampSeconds, p.Payload.TimestampFormatted,
			pgvector.NewVector(p.Vector),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(points); i++ {
		if _, err := br.Exec(); err != nil {
			return &StoreError{Op: "upsert", Err: err}
		}
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	query := `SELECT id, frame_id, video_id, video_title, video_url, file_path,
                     frame_number, timestamp_seconds, timestamp_formatted,
                     1 - (embedding <=> $1) AS similarity
              FROM frame_points`
	args := []any{pgvector.NewVector(vector)}
	query, args = appendFilter(query, args, filter)
	query += " ORDER BY embedding <=> $1, id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	defer rows.Close()

	var results []ScoredPoint
	for rows.Next() {
		var sp ScoredPoint
		var id int64
		if err := rows.Scan(
			&id, &sp.Payload.FrameID, &sp.Payload.VideoID, &sp.Payload.VideoTitle,
			&sp.Payload.VideoURL, &sp.Payload.FilePath, &sp.Payload.FrameNumber,
			&sp.Payload.TimestampSeconds, &sp.Payload.TimestampFormatted, &sp.Score,
		); err != nil {
			return nil, &StoreError{Op: "search", Err: err}
		}
		sp.ID = uint64(id)
		results = append(results, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	return results, nil
}

func (s *PostgresStore) Scroll(ctx context.Context, filter *Filter, limit int) ([]Point, error) {
	query := `SELECT id, frame_id, video_id, video_title, video_url, file_path,
                     frame_number, timestamp_seconds, timestamp_formatted
              FROM frame_points`
	var args []any
	query, args = appendFilter(query, args, filter)
	query += " ORDER BY timestamp_seconds, frame_number, id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "scroll", Err: err}
	}
	defer rows.Close()

	var results []Point
	for rows.Next() {
		var p Point
		var id int64
		if err := rows.Scan(
			&id, &p.Payload.FrameID, &p.Payload.VideoID, &p.Payload.VideoTitle,
			&p.Payload.VideoURL, &p.Payload.FilePath, &p.Payload.FrameNumber,
			&p.Payload.TimestampSeconds, &p.Payload.TimestampFormatted,
		); err != nil {
			return nil, &StoreError{Op: "scroll", Err: err}
		}
		p.ID = uint64(id)
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "scroll", Err: err}
	}
	return results, nil
}

func (s *PostgresStore) DeleteByFilter(ctx context.Context, filter *Filter) error {
	query := "DELETE FROM frame_points"
	var args []any
	query, args = appendFilter(query, args, filter)
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Videos:     make(map[string]VideoStats),
		VectorSize: s.dim,
		Distance:   "Cosine",
	}

	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM frame_points").Scan(&stats.TotalPoints); err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT video_id, MIN(video_title), COUNT(*)
         FROM frame_points GROUP BY video_id`)
	if err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var videoID string
		var vs VideoStats
		if err := rows.Scan(&videoID, &vs.Title, &vs.FrameCount); err != nil {
			return nil, &StoreError{Op: "stats", Err: err}
		}
		stats.Videos[videoID] = vs
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}

	stats.TotalVideos = len(stats.Videos)
	return stats, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// appendFilter adds WHERE clauses for the filter, continuing the argument
// numbering from args.
func appendFilter(query string, args []any, filter *Filter) (string, []any) {
	if filter == nil {
		return query, args
	}
	clause := " WHERE"
	first := true
	add := func(cond string, arg any) {
		if !first {
			query += " AND"
		} else {
			query += clause
			first = false
		}
		args = append(args, arg)
		query += fmt.Sprintf(" %s $%d", cond, len(args))
	}
	if filter.VideoID != "" {
		add("video_id =", filter.VideoID)
	}
	if filter.MinTimestamp != nil {
		add("timestamp_seconds >=", *filter.MinTimestamp)
	}
	if filter.MaxTimestamp != nil {
		add("timestamp_seconds <=", *filter.MaxTimestamp)
	}
	return query, args
}
