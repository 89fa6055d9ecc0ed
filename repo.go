package canchannels

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	descriptionLimit = 150
	noDescription    = "No description available"
	placeholderImage = "https://www.svgrepo.com/show/508699/landscape-placeholder.svg"
)

// ErrValidation marks input rejected before any store call.
var ErrValidation = errors.New("validation failed")

// ContentRepository is the read/write surface over posts. Read operations
// degrade to empty results on store failure; write operations propagate
// store errors to the caller.
type ContentRepository struct {
	store *Store
	log   *Logger
}

// NewContentRepository wires a repository over the given store.
func NewContentRepository(store *Store, log *Logger) *ContentRepository {
	return &ContentRepository{store: store, log: log.With("component", "content")}
}

// List returns every post as a view model, newest first. Store failures are
// logged and yield an empty slice.
func (r *ContentRepository) List() []PostView {
	posts, err := r.store.ListPosts()
	if err != nil {
		r.log.Warn("list posts failed", "error", err)
		return []PostView{}
	}
	return toViews(posts)
}

// ListByCategory returns posts for a raw category value, newest first.
func (r *ContentRepository) ListByCategory(category string) []PostView {
	posts, err := r.store.ListPostsByCategory(category)
	if err != nil {
		r.log.Warn("list posts by category failed", "category", category, "error", err)
		return []PostView{}
	}
	return toViews(posts)
}

// ListFeatured returns featured posts, newest first.
func (r *ContentRepository) ListFeatured() []PostView {
	posts, err := r.store.ListFeaturedPosts()
	if err != nil {
		r.log.Warn("list featured posts failed", "error", err)
		return []PostView{}
	}
	return toViews(posts)
}

// Search returns posts whose title, subtitle, or body contains query.
func (r *ContentRepository) Search(query string) []PostView {
	posts, err := r.store.SearchPosts(query)
	if err != nil {
		r.log.Warn("search posts failed", "query", query, "error", err)
		return []PostView{}
	}
	return toViews(posts)
}

// GetByID returns the full post record, or nil when the post does not exist
// or the store fails.
func (r *ContentRepository) GetByID(id string) *Post {
	post, err := r.store.GetPost(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("get post failed", "id", id, "error", err)
		}
		return nil
	}
	return &post
}

// Stats returns dashboard counts: all posts, featured posts, and posts
// created in the last seven days.
func (r *ContentRepository) Stats() DashboardStats {
	posts, err := r.store.ListPosts()
	if err != nil {
		r.log.Warn("stats load failed", "error", err)
		return DashboardStats{}
	}
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	stats := DashboardStats{Total: len(posts)}
	for _, p := range posts {
		if p.Featured {
			stats.Featured++
		}
		if p.CreatedAt.After(weekAgo) {
			stats.Recent++
		}
	}
	return stats
}

// Create validates and inserts a new post, assigning an id and creation time
// when absent. Store errors propagate.
func (r *ContentRepository) Create(p Post) (Post, error) {
	if err := validatePost(&p); err != nil {
		return Post{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := r.store.SavePost(p); err != nil {
		return Post{}, fmt.Errorf("save post: %w", err)
	}
	return p, nil
}

// Update validates and rewrites an existing post. Store errors propagate.
func (r *ContentRepository) Update(p Post) error {
	if p.ID == "" {
		return fmt.Errorf("%w: post id is required", ErrValidation)
	}
	if err := validatePost(&p); err != nil {
		return err
	}
	if err := r.store.UpdatePost(p); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func validatePost(p *Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	for i := range p.Links {
		link := &p.Links[i]
		u, err := url.Parse(link.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: link %q is not a valid URL", ErrValidation, link.URL)
		}
		if link.ID == "" {
			link.ID = uuid.NewString()
		}
		if link.Title == "" {
			link.Title = link.URL
		}
	}
	return nil
}

func toViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, toView(p))
	}
	return views
}

func toView(p Post) PostView {
	v := PostView{
		ID:          p.ID,
		Title:       p.Title,
		Description: describe(p),
		Category:    FormatCategory(p.Category),
		Image:       p.Image,
		Featured:    p.Featured,
		PublishedOn: p.CreatedAt.UTC().Format("2006-01-02"),
	}
	if v.Image == "" {
		v.Image = placeholderImage
	}
	if len(p.Links) > 0 {
		link := p.Links[0]
		v.Link = &link
	}
	return v
}

// describe derives the short description: subtitle first, then the split
// lead text, then the legacy body, then a fixed sentinel. Truncation is
// rune-safe at descriptionLimit with a "..." suffix.
func describe(p Post) string {
	if p.Subtitle != "" {
		return p.Subtitle
	}
	if p.ContentTop != "" {
		return truncate(p.ContentTop, descriptionLimit)
	}
	if p.Content != "" {
		return truncate(p.Content, descriptionLimit)
	}
	return noDescription
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
