package model

import (
	"time"

	"github.com/google/uuid"
)

type BlogPost struct {
	Base
	Slug        string     `db:"slug" json:"slug"`
	Title       string     `db:"title" json:"title"`
	Excerpt     *string    `db:"excerpt" json:"excerpt,omitempty"`
	Body        string     `db:"body" json:"body"`
	CoverURL    *string    `db:"cover_url" json:"cover_url,omitempty"`
	IsPublished bool       `db:"is_published" json:"is_published"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
}

type CreateBlogPostRequest struct {
	Slug        string  `json:"slug" validate:"required,slug,max=120"`
	Title       string  `json:"title" validate:"required,max=200"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=500"`
	Body        string  `json:"body" validate:"required"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	IsPublished bool    `json:"is_published"`
}

type UpdateBlogPostRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=500"`
	Body        *string `json:"body"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	IsPublished *bool   `json:"is_published"`
}

// IntegrationLog is an audit row for an external integration event.
type IntegrationLog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventType string    `db:"event_type" json:"event_type"`
	Source    string    `db:"source" json:"source"`
	Payload   JSONMap   `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RevenuePoint is one bar of a billing chart.
type RevenuePoint struct {
	Label        string `db:"label" json:"label"`
	Revenue      int64  `db:"revenue" json:"revenue"`
	Appointments int    `db:"appointments" json:"appointments"`
}

type BillingSummary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	TotalRevenue   int64           `json:"total_revenue"`
	Appointments   int             `json:"appointments"`
	ByMonth        []*RevenuePoint `json:"by_month"`
	ByProfessional []*RevenuePoint `json:"by_professional"`
}
