package canchannels

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, errBody("too many login attempts, try again later"))
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
	}
	status := a.Gate.SignIn(c.Request().Context(), req.Email, req.Password)
	if status.State != StateAuthenticated {
		a.loginLimiter.Record(c.RealIP())
		return apiError(c, status.Err)
	}
	if err := setSessionToken(c, status.Actor.Session.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (a *App) handleLogout(c echo.Context) error {
	status := a.Gate.SignOut(c.Request().Context(), sessionToken(c))
	if err := clearSessionToken(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// handleSession resumes the caller's session with the gate's bounded
// timeout; a slow identity store yields anonymous, never a hung request.
func (a *App) handleSession(c echo.Context) error {
	status := a.Gate.Resume(c.Request().Context(), sessionToken(c))
	return c.JSON(http.StatusOK, status)
}

// requireThen runs fn only when the caller's fresh profile grants perm.
func (a *App) requireThen(c echo.Context, perm Permission, fn func(actor *Actor) error) error {
	actor, err := a.Gate.Require(c.Request().Context(), sessionToken(c), perm)
	if err != nil {
		return apiError(c, err)
	}
	return fn(actor)
}

func (a *App) handleCreatePost(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		var post Post
		if err := c.Bind(&post); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		created, err := a.Content.Create(post)
		if err != nil {
			return apiError(c, err)
		}
		a.Cache.Invalidate()
		return c.JSON(http.StatusCreated, created)
	})
}

func (a *App) handleUpdatePost(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		var post Post
		if err := c.Bind(&post); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		post.ID = c.Param("id")
		if err := a.Content.Update(post); err != nil {
			return apiError(c, err)
		}
		a.Cache.Invalidate()
		return c.JSON(http.StatusOK, post)
	})
}

func (a *App) handleDeletePost(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		if err := a.Deleter.DeletePost(c.Param("id")); err != nil {
			return apiError(c, err)
		}
		a.Cache.Invalidate()
		return c.NoContent(http.StatusNoContent)
	})
}

func (a *App) handleStats(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		return c.JSON(http.StatusOK, a.Content.Stats())
	})
}

func (a *App) handleListAds(c echo.Context) error {
	return a.requireThen(c, PermManageAdvertisements, func(*Actor) error {
		return c.JSON(http.StatusOK, a.Ads.List())
	})
}

type adRequest struct {
	Advertisement
	// UploadedURL carries the public URL of a blob uploaded through the
	// image endpoint; mutually exclusive with ImageURL.
	UploadedURL string `json:"uploaded_url,omitempty"`
}

func (a *App) handleCreateAd(c echo.Context) error {
	return a.requireThen(c, PermManageAdvertisements, func(*Actor) error {
		var req adRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		created, err := a.Ads.Create(req.Advertisement, req.UploadedURL)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusCreated, created)
	})
}

func (a *App) handleUpdateAd(c echo.Context) error {
	return a.requireThen(c, PermManageAdvertisements, func(*Actor) error {
		var req adRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		req.ID = c.Param("id")
		if err := a.Ads.Update(req.Advertisement, req.UploadedURL); err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusOK, req.Advertisement)
	})
}

type activeRequest struct {
	Active bool `json:"is_active"`
}

func (a *App) handleToggleAd(c echo.Context) error {
	return a.requireThen(c, PermManageAdvertisements, func(*Actor) error {
		var req activeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		if err := a.Ads.SetActive(c.Param("id"), req.Active); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func (a *App) handleDeleteAd(c echo.Context) error {
	return a.requireThen(c, PermManageAdvertisements, func(*Actor) error {
		prior := a.Ads.Get(c.Param("id"))
		if err := a.Deleter.DeleteAdvertisement(c.Param("id"), prior); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func (a *App) handleAdminNotifications(c echo.Context) error {
	return a.requireThen(c, PermSystemSettings, func(*Actor) error {
		notifications, err := a.Store.ListNotifications(false)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusOK, notifications)
	})
}

func (a *App) handleCreateNotification(c echo.Context) error {
	return a.requireThen(c, PermSystemSettings, func(*Actor) error {
		var n Notification
		if err := c.Bind(&n); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		created, err := a.Notifications.Create(n)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusCreated, created)
	})
}

func (a *App) handleUpdateNotification(c echo.Context) error {
	return a.requireThen(c, PermSystemSettings, func(*Actor) error {
		var n Notification
		if err := c.Bind(&n); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		n.ID = c.Param("id")
		if err := a.Notifications.Update(n); err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusOK, n)
	})
}

func (a *App) handleDeleteNotification(c echo.Context) error {
	return a.requireThen(c, PermSystemSettings, func(*Actor) error {
		if err := a.Store.DeleteNotification(c.Param("id")); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

// Sub-actor management requires the admin role itself, not just a
// permission flag.
func (a *App) adminOnly(c echo.Context, fn func(actor *Actor) error) error {
	actor, err := a.Gate.RequireAdmin(c.Request().Context(), sessionToken(c))
	if err != nil {
		return apiError(c, err)
	}
	return fn(actor)
}

func (a *App) handleListSubActors(c echo.Context) error {
	return a.adminOnly(c, func(*Actor) error {
		return c.JSON(http.StatusOK, a.SubActors.List())
	})
}

type createSubActorRequest struct {
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	Role        Role           `json:"role"`
	Permissions *PermissionSet `json:"permissions,omitempty"`
}

func (a *App) handleCreateSubActor(c echo.Context) error {
	return a.adminOnly(c, func(*Actor) error {
		var req createSubActorRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		profile, err := a.SubActors.CreateSubActor(c.Request().Context(), req.Email, req.Password, req.Role, req.Permissions)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusCreated, profile)
	})
}

type roleRequest struct {
	Role Role `json:"role"`
}

func (a *App) handleUpdateSubActorRole(c echo.Context) error {
	return a.adminOnly(c, func(*Actor) error {
		var req roleRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
		}
		if err := a.SubActors.UpdateRole(c.Request().Context(), c.Param("id"), req.Role); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func (a *App) handleDeleteSubActor(c echo.Context) error {
	return a.adminOnly(c, func(actor *Actor) error {
		if err := a.SubActors.DeleteSubActor(c.Request().Context(), c.Param("id")); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func (a *App) handleUploadImage(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		file, err := c.FormFile("image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errBody("no image file provided"))
		}
		if file.Size > maxUploadSize {
			return c.JSON(http.StatusBadRequest, errBody("file too large (max 10MB)"))
		}
		src, err := file.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		img, err := a.Images.Upload(src, file.Filename)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(http.StatusCreated, img)
	})
}

func (a *App) handleListImages(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		return c.JSON(http.StatusOK, a.Images.List())
	})
}

func (a *App) handleDeleteImage(c echo.Context) error {
	return a.requireThen(c, PermManagePosts, func(*Actor) error {
		if err := a.Images.Delete(c.Param("filename")); err != nil {
			return apiError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
