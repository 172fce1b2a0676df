package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	// Save inserts the post or overwrites every mutable column of an existing row.
	Save(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, tx *sql.Tx, id string, fields models.PostFields) error
	// TransitionStatus moves the post from -> to only if it is still in from.
	TransitionStatus(ctx context.Context, tx *sql.Tx, id string, from, to models.PostStatus) (bool, error)
	ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error)
	ListByStatus(ctx context.Context, status models.PostStatus) ([]*models.Post, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, title, description, category, hashtags, platforms, overrides, media_key,
	status, schedule_time, results, ai_content, viral_score, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	args, err := postArgs(post)
	if err != nil {
		return err
	}
	if _, err := execer(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Save(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			hashtags = EXCLUDED.hashtags,
			platforms = EXCLUDED.platforms,
			overrides = EXCLUDED.overrides,
			media_key = EXCLUDED.media_key,
			status = EXCLUDED.status,
			schedule_time = EXCLUDED.schedule_time,
			results = EXCLUDED.results,
			ai_content = EXCLUDED.ai_content,
			viral_score = EXCLUDED.viral_score,
			updated_at = EXCLUDED.updated_at`

	args, err := postArgs(post)
	if err != nil {
		return err
	}
	if _, err := execer(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) Update(ctx context.Context, tx *sql.Tx, id string, f models.PostFields) error {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setJSON := func(column string, value any) error {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", column, err)
		}
		set(column, b)
		return nil
	}

	if f.Title != nil {
		set("title", *f.Title)
	}
	if f.Description != nil {
		set("description", *f.Description)
	}
	if f.Hashtags != nil {
		if err := setJSON("hashtags", f.Hashtags); err != nil {
			return err
		}
	}
	if f.Overrides != nil {
		if err := setJSON("overrides", f.Overrides); err != nil {
			return err
		}
	}
	if f.Status != nil {
		set("status", string(*f.Status))
	}
	if f.ScheduleTime != nil {
		set("schedule_time", *f.ScheduleTime)
	}
	if f.Results != nil {
		if err := setJSON("results", f.Results); err != nil {
			return err
		}
	}
	if f.AIContent != nil {
		if err := setJSON("ai_content", f.AIContent); err != nil {
			return err
		}
	}
	if f.ViralScore != nil {
		set("viral_score", *f.ViralScore)
	}
	if len(sets) == 0 {
		return nil
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := execer(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return requireRow(res)
}

func (r *postRepository) TransitionStatus(ctx context.Context, tx *sql.Tx, id string, from, to models.PostStatus) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := execer(r.db, tx).ExecContext(ctx, query, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postRepository) ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1`
	args := []any{string(models.PostStatusScheduled)}

	if filter.Platform != "" {
		b, err := json.Marshal([]string{filter.Platform})
		if err != nil {
			return nil, err
		}
		args = append(args, string(b))
		query += fmt.Sprintf(" AND platforms @> $%d::jsonb", len(args))
	}
	if filter.Date != nil {
		d := *filter.Date
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		args = append(args, start, start.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND schedule_time >= $%d AND schedule_time < $%d", len(args)-1, len(args))
	}
	query += " ORDER BY schedule_time ASC"
	return r.list(ctx, query, args...)
}

func (r *postRepository) ListByStatus(ctx context.Context, status models.PostStatus) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, string(status))
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func postArgs(p *models.Post) ([]any, error) {
	hashtags, err := json.Marshal(nonNil(p.Hashtags))
	if err != nil {
		return nil, err
	}
	platforms, err := json.Marshal(nonNil(p.Platforms))
	if err != nil {
		return nil, err
	}
	overrides, err := nullableJSON(p.Overrides, len(p.Overrides) == 0)
	if err != nil {
		return nil, err
	}
	results, err := nullableJSON(p.Results, len(p.Results) == 0)
	if err != nil {
		return nil, err
	}
	aiContent, err := nullableJSON(p.AIContent, p.AIContent == nil)
	if err != nil {
		return nil, err
	}

	return []any{
		p.ID, p.Title, p.Description, p.Category, hashtags, platforms, overrides, p.MediaKey,
		string(p.Status), p.ScheduleTime, results, aiContent, p.ViralScore, p.CreatedAt, p.UpdatedAt,
	}, nil
}

func scanPost(row scanner) (*models.Post, error) {
	var (
		post                                               models.Post
		status                                             string
		hashtags, platforms, overrides, results, aiContent []byte
		scheduleTime                                       sql.NullTime
	)
	err := row.Scan(
		&post.ID, &post.Title, &post.Description, &post.Category, &hashtags, &platforms, &overrides,
		&post.MediaKey, &status, &scheduleTime, &results, &aiContent, &post.ViralScore, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Status = models.PostStatus(status)
	if scheduleTime.Valid {
		t := scheduleTime.Time
		post.ScheduleTime = &t
	}
	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{hashtags, &post.Hashtags},
		{platforms, &post.Platforms},
		{overrides, &post.Overrides},
		{results, &post.Results},
		{aiContent, &post.AIContent},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode post %s: %w", post.ID, err)
		}
	}
	return &post, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableJSON stores empty values as SQL NULL.
func nullableJSON(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}
