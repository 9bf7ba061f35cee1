package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

const blogColumns = `
	id, slug, title, excerpt, body, cover_url, is_published, published_at, created_at, updated_at
`

func (r *blogRepository) ListPublished(ctx context.Context) ([]*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE is_published = true ORDER BY published_at DESC NULLS LAST`

	var posts []*model.BlogPost
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (r *blogRepository) GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE slug = $1 AND is_published = true`

	var post model.BlogPost
	if err := r.db.GetContext(ctx, &post, query, slug); err != nil {
		return nil, fmt.Errorf("failed to get blog post: %w", mapError(err, "blog post"))
	}
	return &post, nil
}

func (r *blogRepository) ListAll(ctx context.Context) ([]*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts ORDER BY created_at DESC`

	var posts []*model.BlogPost
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (r *blogRepository) Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1`

	var post model.BlogPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, fmt.Errorf("failed to get blog post: %w", mapError(err, "blog post"))
	}
	return &post, nil
}

func (r *blogRepository) Create(ctx context.Context, post *model.BlogPost) error {
	query := `
		INSERT INTO blog_posts (
			id, slug, title, excerpt, body, cover_url,
			is_published, published_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	post.ID = uuid.New()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Slug,
		post.Title,
		post.Excerpt,
		post.Body,
		post.CoverURL,
		post.IsPublished,
		post.PublishedAt,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blog post: %w", mapError(err, "blog post"))
	}
	return nil
}

func (r *blogRepository) Update(ctx context.Context, post *model.BlogPost) error {
	query := `
		UPDATE blog_posts
		SET title = $1, excerpt = $2, body = $3, cover_url = $4,
		    is_published = $5, published_at = $6, updated_at = $7
		WHERE id = $8
	`
	post.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Excerpt,
		post.Body,
		post.CoverURL,
		post.IsPublished,
		post.PublishedAt,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	return requireAffected(result, "blog post")
}

func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	return requireAffected(result, "blog post")
}

func (r *integrationLogRepository) Create(ctx context.Context, entry *model.IntegrationLog) error {
	query := `
		INSERT INTO integration_logs (id, event_type, source, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.EventType, entry.Source, entry.Payload, entry.CreatedAt)
	r.observe("integration_logs.create", start, err)
	if err != nil {
		return fmt.Errorf("failed to create integration log: %w", err)
	}
	return nil
}

func (r *integrationLogRepository) List(ctx context.Context, eventType string, limit int) ([]*model.IntegrationLog, error) {
	query := `SELECT id, event_type, source, payload, created_at FROM integration_logs`
	args := []interface{}{}
	if eventType != "" {
		query += " WHERE event_type = $1"
		args = append(args, eventType)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var logs []*model.IntegrationLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list integration logs: %w", err)
	}
	return logs, nil
}

func (r *integrationLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM integration_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete integration logs: %w", err)
	}
	return result.RowsAffected()
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, full_name, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	user.ID = uuid.New()
	user.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err, "user"))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, full_name, password_hash, is_active, created_at FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err, "user"))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, full_name, password_hash, is_active, created_at FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err, "user"))
	}
	return &user, nil
}
