package canchannels

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultRelatedLimit = 4

func (a *App) handleListPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Cache.List())
}

func (a *App) handleFeaturedPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Content.ListFeatured())
}

func (a *App) handlePostsByCategory(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Content.ListByCategory(c.Param("category")))
}

func (a *App) handleSearchPosts(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusOK, []PostView{})
	}
	return c.JSON(http.StatusOK, a.Content.Search(query))
}

// postDetail is the single-post payload: the full record plus the first
// recognized video link, if any.
type postDetail struct {
	Post     Post            `json:"post"`
	Video    *VideoReference `json:"video,omitempty"`
	ThumbURL string          `json:"thumbnail_url,omitempty"`
}

func (a *App) handleGetPost(c echo.Context) error {
	post := a.Content.GetByID(c.Param("id"))
	if post == nil {
		return c.JSON(http.StatusNotFound, errBody("post not found"))
	}
	detail := postDetail{Post: *post}
	if ref := FindVideoReference(post.Links); ref != nil {
		detail.Video = ref
		detail.ThumbURL = ThumbnailURL(ref.VideoID, ThumbMaxRes)
	}
	return c.JSON(http.StatusOK, detail)
}

// handleRelatedPosts recommends by the post's keywords. When the post has no
// keywords the handler falls back to the most recent posts; that fallback is
// this caller's policy, not the recommender's.
func (a *App) handleRelatedPosts(c echo.Context) error {
	id := c.Param("id")
	post := a.Content.GetByID(id)
	if post == nil {
		return c.JSON(http.StatusNotFound, errBody("post not found"))
	}
	limit := defaultRelatedLimit
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}
	related := a.Recommender.Recommend(post.Keywords, id, limit)
	if len(related) == 0 {
		related = recentExcluding(a.Cache.List(), id, limit)
	}
	return c.JSON(http.StatusOK, related)
}

func recentExcluding(posts []PostView, excludeID string, limit int) []PostView {
	out := make([]PostView, 0, limit)
	for _, p := range posts {
		if p.ID == excludeID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// handleResolveAd returns the active ad for a slot, or the statically
// configured fallback. Resolution failure is never an error.
func (a *App) handleResolveAd(c echo.Context) error {
	position := AdPosition(c.Param("position"))
	if !ValidPosition(position) {
		return c.JSON(http.StatusBadRequest, errBody("unknown position"))
	}
	if ad := a.Ads.Resolve(position); ad != nil {
		return c.JSON(http.StatusOK, ad)
	}
	return c.JSON(http.StatusOK, Advertisement{
		ImageURL: a.Config.FallbackAdImage,
		LinkURL:  a.Config.FallbackAdLink,
		Position: position,
		Active:   true,
	})
}

func (a *App) handleListNotifications(c echo.Context) error {
	notifications, err := a.Store.ListNotifications(true)
	if err != nil {
		a.Log.Warn("list notifications failed", "error", err)
		notifications = []Notification{}
	}
	return c.JSON(http.StatusOK, notifications)
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// apiError maps domain errors onto HTTP statuses.
func apiError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return c.JSON(http.StatusBadRequest, errBody(err.Error()))
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errBody(err.Error()))
	case errors.Is(err, ErrDenied), errors.Is(err, ErrPrivilegesRequired), errors.Is(err, ErrAdminProtected):
		return c.JSON(http.StatusForbidden, errBody(err.Error()))
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, errBody("not found"))
	default:
		return c.JSON(http.StatusInternalServerError, errBody("internal error"))
	}
}
