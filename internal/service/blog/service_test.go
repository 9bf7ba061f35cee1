package blog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

type fakeBlogRepo struct {
	posts map[uuid.UUID]*model.BlogPost
}

func (r *fakeBlogRepo) ListPublished(ctx context.Context) ([]*model.BlogPost, error) {
	out := []*model.BlogPost{}
	for _, p := range r.posts {
		if p.IsPublished {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBlogRepo) GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	for _, p := range r.posts {
		if p.Slug == slug && p.IsPublished {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("blog post", nil)
}

func (r *fakeBlogRepo) ListAll(ctx context.Context) ([]*model.BlogPost, error) {
	out := []*model.BlogPost{}
	for _, p := range r.posts {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBlogRepo) Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("blog post", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeBlogRepo) Create(ctx context.Context, post *model.BlogPost) error {
	for _, p := range r.posts {
		if p.Slug == post.Slug {
			return errors.Conflict("blog post already exists", nil)
		}
	}
	post.ID = uuid.New()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakeBlogRepo) Update(ctx context.Context, post *model.BlogPost) error {
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakeBlogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return errors.NotFound("blog post", nil)
	}
	delete(r.posts, id)
	return nil
}

func newService() *Service {
	repo := &fakeBlogRepo{posts: map[uuid.UUID]*model.BlogPost{}}
	return NewService(repo, query.NewClient(query.Config{StaleTime: time.Minute}), validator.New())
}

func TestDraftIsHiddenUntilPublished(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	post, err := svc.Create(ctx, &model.CreateBlogPostRequest{Slug: "welcome", Title: "Welcome", Body: "Hello"})
	require.NoError(t, err)
	assert.Nil(t, post.PublishedAt)

	_, err = svc.GetBySlug(ctx, "welcome")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	list, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	published := true
	post, err = svc.Update(ctx, post.ID, &model.UpdateBlogPostRequest{IsPublished: &published})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)

	got, err := svc.GetBySlug(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Title)
	list, err = svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDuplicateSlugIsConflict(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreateBlogPostRequest{Slug: "news", Title: "News", Body: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &model.CreateBlogPostRequest{Slug: "news", Title: "News again", Body: "b"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestDeleteRemovesFromAdminList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	post, err := svc.Create(ctx, &model.CreateBlogPostRequest{Slug: "old", Title: "Old", Body: "a"})
	require.NoError(t, err)
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, post.ID))
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
