package canchannels

import "time"

// Post is the core content record. The body is either the legacy single
// Content field or the split form (ContentTop, Media, ContentBottom); the
// split form supersedes Content when any of its parts is set.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	Category   string    `json:"category,omitempty"`
	Content    string    `json:"content,omitempty"`
	ContentTop string    `json:"content_top,omitempty"`
	Media      []string  `json:"media,omitempty"`
	ContentBot string    `json:"content_bottom,omitempty"`
	Keywords   string    `json:"keywords,omitempty"`
	Links      []Link    `json:"links,omitempty"`
	Featured   bool      `json:"featured"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasSplitBody reports whether the post uses the split body form.
func (p Post) HasSplitBody() bool {
	return p.ContentTop != "" || p.ContentBot != "" || len(p.Media) > 0
}

// Link is a titled URL attached to a post.
type Link struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PostView is the read model returned by list and search operations.
type PostView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Link        *Link  `json:"link,omitempty"`
	Featured    bool   `json:"featured"`
	PublishedOn string `json:"published_on"`
}

// AdPosition is a named advertisement slot on the user-facing pages.
type AdPosition string

const (
	PositionHomepageTop        AdPosition = "homepage-top"
	PositionHomepageSidebar    AdPosition = "homepage-sidebar"
	PositionHeroSection        AdPosition = "hero-section"
	PositionCanPostsSidebar    AdPosition = "can-posts-sidebar"
	PositionContentPageSidebar AdPosition = "content-page-sidebar"
)

// AdPositions lists every valid placement slot.
var AdPositions = []AdPosition{
	PositionHomepageTop,
	PositionHomepageSidebar,
	PositionHeroSection,
	PositionCanPostsSidebar,
	PositionContentPageSidebar,
}

// ValidPosition reports whether p is one of the known placement slots.
func ValidPosition(p AdPosition) bool {
	for _, pos := range AdPositions {
		if p == pos {
			return true
		}
	}
	return false
}

// Advertisement is a placed banner. ImageURL always holds the authoritative
// image reference after a write, whether it came in as a remote URL or as an
// uploaded blob.
type Advertisement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url"`
	LinkURL     string     `json:"link_url"`
	Position    AdPosition `json:"position"`
	Active      bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Role is an actor's privilege level. Roles outside the admin-level set are
// stored verbatim but never pass the authorization gate.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleEditor    Role = "editor"
)

// AdminLevel reports whether r may enter the protected surface at all.
func (r Role) AdminLevel() bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleEditor
}

// PermissionSet holds the per-surface flags persisted on a profile. The set
// is defaulted from the role at creation time but stored explicitly and never
// re-derived afterwards.
type PermissionSet struct {
	ManagePosts          bool `json:"managePosts"`
	ManageAdvertisements bool `json:"manageAdvertisements"`
	ManageUsers          bool `json:"manageUsers"`
	SystemSettings       bool `json:"systemSettings"`
}

// DefaultPermissions returns the permission bundle implied by a role.
func DefaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleEditor:
		return PermissionSet{ManagePosts: true}
	case RoleModerator:
		return PermissionSet{ManagePosts: true, ManageAdvertisements: true}
	case RoleAdmin:
		return PermissionSet{
			ManagePosts:          true,
			ManageAdvertisements: true,
			ManageUsers:          true,
			SystemSettings:       true,
		}
	default:
		return PermissionSet{}
	}
}

// Profile is the stored actor record the gate and the sub-actor
// administrator operate on.
type Profile struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Notification is a site-wide announcement, optionally pointing at a video.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	YoutubeLink string    `json:"youtube_link,omitempty"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is metadata for a blob uploaded into the managed content-image store.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
}

// DashboardStats summarizes the post collection for the admin dashboard.
type DashboardStats struct {
	Total    int `json:"total"`
	Featured int `json:"featured"`
	Recent   int `json:"recent"`
}
