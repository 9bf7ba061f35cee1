package blog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

type Service struct {
	repo     repository.BlogRepository
	queries  *query.Client
	validate validator.Validator
	now      func() time.Time
}

func NewService(repo repository.BlogRepository, queries *query.Client, validate validator.Validator) *Service {
	return &Service{repo: repo, queries: queries, validate: validate, now: time.Now}
}

func (s *Service) ListPublished(ctx context.Context) ([]*model.BlogPost, error) {
	return query.Fetch(ctx, s.queries, cachekey.BlogPosts(), s.repo.ListPublished)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return query.Fetch(ctx, s.queries, cachekey.BlogPost(slug), func(ctx context.Context) (*model.BlogPost, error) {
		return s.repo.GetPublishedBySlug(ctx, slug)
	})
}

func (s *Service) ListAll(ctx context.Context) ([]*model.BlogPost, error) {
	return query.Fetch(ctx, s.queries, cachekey.AdminBlogPosts(), s.repo.ListAll)
}

func (s *Service) Create(ctx context.Context, req *model.CreateBlogPostRequest) (*model.BlogPost, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	post := &model.BlogPost{
		Slug:     req.Slug,
		Title:    req.Title,
		Excerpt:  req.Excerpt,
		Body:     req.Body,
		CoverURL: req.CoverURL,
	}
	s.setPublished(post, req.IsPublished)

	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.BlogPost, error) {
		if err := s.repo.Create(ctx, post); err != nil {
			if errors.Is(err, errors.ErrConflict) {
				return nil, errors.Conflict("a post with this slug already exists", err)
			}
			return nil, err
		}
		return post, nil
	}, cachekey.AllBlog())
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateBlogPostRequest) (*model.BlogPost, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Excerpt != nil {
		post.Excerpt = req.Excerpt
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.CoverURL != nil {
		post.CoverURL = req.CoverURL
	}
	if req.IsPublished != nil {
		s.setPublished(post, *req.IsPublished)
	}

	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.BlogPost, error) {
		if err := s.repo.Update(ctx, post); err != nil {
			return nil, err
		}
		return post, nil
	}, cachekey.AllBlog())
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}, cachekey.AllBlog())
}

// setPublished stamps published_at the first time a post goes live.
func (s *Service) setPublished(post *model.BlogPost, published bool) {
	post.IsPublished = published
	if published && post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}
}
