package canchannels

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_canchannels.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(id, title string, createdAt time.Time) Post {
	return Post{
		ID:        id,
		Title:     title,
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)

	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	post := Post{
		ID:         "p1",
		Title:      "Test Post",
		Subtitle:   "A subtitle",
		Category:   "can-news",
		ContentTop: "lead text",
		Media:      []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		ContentBot: "trailing text",
		Keywords:   "news,politics",
		Links: []Link{
			{ID: "l1", URL: "https://example.com", Title: "Example"},
		},
		Featured:  true,
		Image:     "https://cdn.example.com/cover.jpg",
		CreatedAt: created,
	}

	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	got, err := s.GetPost("p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if got.Subtitle != post.Subtitle {
		t.Errorf("Subtitle = %q, want %q", got.Subtitle, post.Subtitle)
	}
	if got.ContentTop != "lead text" || got.ContentBot != "trailing text" {
		t.Errorf("split body roundtrip failed: %+v", got)
	}
	if len(got.Media) != 2 {
		t.Errorf("Media count = %d, want 2", len(got.Media))
	}
	if len(got.Links) != 1 || got.Links[0].URL != "https://example.com" {
		t.Errorf("Links roundtrip failed: %+v", got.Links)
	}
	if !got.Featured {
		t.Error("Featured should be true")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPost("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsOrderedByCreationDesc(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.SavePost(testPost(id, "Post "+id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts count = %d, want 3", len(got))
	}
	if got[0].ID != "new" || got[2].ID != "old" {
		t.Errorf("wrong order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestListPostsByCategory(t *testing.T) {
	s := setupTestStore(t)

	p1 := testPost("p1", "One", time.Now())
	p1.Category = "cinema"
	p2 := testPost("p2", "Two", time.Now())
	p2.Category = "can-news"
	for _, p := range []Post{p1, p2} {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListPostsByCategory("cinema")
	if err != nil {
		t.Fatalf("ListPostsByCategory failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("ListPostsByCategory(cinema) = %+v, want just p1", got)
	}
}

func TestListFeaturedPosts(t *testing.T) {
	s := setupTestStore(t)

	p1 := testPost("p1", "Plain", time.Now())
	p2 := testPost("p2", "Starred", time.Now())
	p2.Featured = true
	for _, p := range []Post{p1, p2} {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListFeaturedPosts()
	if err != nil {
		t.Fatalf("ListFeaturedPosts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("ListFeaturedPosts = %+v, want just p2", got)
	}
}

func TestSearchPostsCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)

	p1 := testPost("p1", "Election Coverage", time.Now())
	p2 := testPost("p2", "Other", time.Now())
	p2.Subtitle = "An ELECTION special"
	p3 := testPost("p3", "Third", time.Now())
	p3.Content = "nothing relevant"
	p4 := testPost("p4", "Fourth", time.Now())
	p4.ContentTop = "the election results came in"
	for _, p := range []Post{p1, p2, p3, p4} {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.SearchPosts("eLeCtIoN")
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("SearchPosts count = %d, want 3 (title, subtitle, split body)", len(got))
	}
}

func TestMatchPostsByKeywords(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p1 := testPost("p1", "Tech Deep Dive", base.Add(time.Hour))
	p1.Keywords = "technology,science"
	p2 := testPost("p2", "Politics Today", base.Add(2*time.Hour))
	p2.Keywords = "politics"
	p3 := testPost("p3", "Tech News", base.Add(3*time.Hour))
	p3.Keywords = "Technology,news"
	for _, p := range []Post{p1, p2, p3} {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	// Substring containment: "tech" matches "technology".
	got, err := s.MatchPostsByKeywords([]string{"tech"}, "", 10)
	if err != nil {
		t.Fatalf("MatchPostsByKeywords failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("match count = %d, want 2", len(got))
	}
	if got[0].ID != "p3" {
		t.Errorf("first match = %s, want p3 (newest)", got[0].ID)
	}

	// Exclusion applies regardless of tag match.
	got, err = s.MatchPostsByKeywords([]string{"tech"}, "p3", 10)
	if err != nil {
		t.Fatalf("MatchPostsByKeywords failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("excluded match = %+v, want just p1", got)
	}

	// Disjunctive across tokens, capped at limit.
	got, err = s.MatchPostsByKeywords([]string{"tech", "politics"}, "", 2)
	if err != nil {
		t.Fatalf("MatchPostsByKeywords failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limited match count = %d, want 2", len(got))
	}
}

func TestUpdatePost(t *testing.T) {
	s := setupTestStore(t)

	post := testPost("p1", "Original", time.Now())
	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	post.Title = "Updated"
	post.Keywords = "fresh"
	if err := s.UpdatePost(post); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := s.GetPost("p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated" || got.Keywords != "fresh" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.UpdatePost(testPost("ghost", "Ghost", time.Now())); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePost on missing post: got %v, want ErrNotFound", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SavePost(testPost("p1", "To Delete", time.Now())); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if err := s.DeletePost("p1"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("post should be gone, got err: %v", err)
	}
	// Deleting a nonexistent post is not an error.
	if err := s.DeletePost("nonexistent"); err != nil {
		t.Errorf("DeletePost on nonexistent should not error, got: %v", err)
	}
}

func testAd(id string, position AdPosition, active bool, createdAt time.Time) Advertisement {
	return Advertisement{
		ID:        id,
		Title:     "Ad " + id,
		ImageURL:  "https://cdn.example.com/" + id + ".jpg",
		LinkURL:   "https://example.com",
		Position:  position,
		Active:    active,
		CreatedAt: createdAt,
	}
}

func TestActiveAdvertisementsByPosition(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ads := []Advertisement{
		testAd("a1", PositionHomepageTop, true, base.Add(time.Hour)),
		testAd("a2", PositionHomepageTop, true, base.Add(2*time.Hour)),
		testAd("a3", PositionHomepageTop, false, base.Add(3*time.Hour)),
		testAd("a4", PositionHeroSection, true, base.Add(4*time.Hour)),
	}
	for _, ad := range ads {
		if err := s.SaveAdvertisement(ad); err != nil {
			t.Fatalf("SaveAdvertisement failed: %v", err)
		}
	}

	got, err := s.ActiveAdvertisementsByPosition(PositionHomepageTop)
	if err != nil {
		t.Fatalf("ActiveAdvertisementsByPosition failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("active count = %d, want 2 (inactive excluded)", len(got))
	}
	if got[0].ID != "a2" {
		t.Errorf("first = %s, want a2 (most recent active)", got[0].ID)
	}
}

func TestSetAdvertisementActive(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SaveAdvertisement(testAd("a1", PositionHeroSection, true, time.Now())); err != nil {
		t.Fatalf("SaveAdvertisement failed: %v", err)
	}
	if err := s.SetAdvertisementActive("a1", false); err != nil {
		t.Fatalf("SetAdvertisementActive failed: %v", err)
	}
	got, err := s.GetAdvertisement("a1")
	if err != nil {
		t.Fatalf("GetAdvertisement failed: %v", err)
	}
	if got.Active {
		t.Error("advertisement should be inactive")
	}
	if err := s.SetAdvertisementActive("ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle on missing ad: got %v, want ErrNotFound", err)
	}
}

func TestProfileRoundtrip(t *testing.T) {
	s := setupTestStore(t)

	p := Profile{
		ID:          "actor1",
		Email:       "editor@example.com",
		Role:        RoleEditor,
		Permissions: DefaultPermissions(RoleEditor),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	got, err := s.GetProfile("actor1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Role != RoleEditor {
		t.Errorf("Role = %q, want editor", got.Role)
	}
	if !got.Permissions.ManagePosts || got.Permissions.ManageUsers {
		t.Errorf("Permissions = %+v, want editor defaults", got.Permissions)
	}
}

func TestUpdateProfileAccessKeepsExplicitPermissions(t *testing.T) {
	s := setupTestStore(t)

	p := Profile{ID: "actor1", Email: "a@example.com", CreatedAt: time.Now().UTC()}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	custom := PermissionSet{ManagePosts: true, SystemSettings: true}
	if err := s.UpdateProfileAccess("actor1", RoleEditor, custom); err != nil {
		t.Fatalf("UpdateProfileAccess failed: %v", err)
	}

	// A later role change must not silently re-derive permissions.
	if err := s.UpdateProfileRole("actor1", RoleModerator); err != nil {
		t.Fatalf("UpdateProfileRole failed: %v", err)
	}

	got, err := s.GetProfile("actor1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Role != RoleModerator {
		t.Errorf("Role = %q, want moderator", got.Role)
	}
	if got.Permissions != custom {
		t.Errorf("Permissions = %+v, want explicit set %+v", got.Permissions, custom)
	}
}

func TestListAdminProfilesExcludesNonAdminRoles(t *testing.T) {
	s := setupTestStore(t)

	for _, p := range []Profile{
		{ID: "a1", Email: "a@x.com", Role: RoleAdmin, CreatedAt: time.Now().UTC()},
		{ID: "v1", Email: "v@x.com", Role: "viewer", CreatedAt: time.Now().UTC()},
		{ID: "e1", Email: "e@x.com", Role: RoleEditor, CreatedAt: time.Now().UTC()},
	} {
		if err := s.SaveProfile(p); err != nil {
			t.Fatalf("SaveProfile failed: %v", err)
		}
	}

	got, err := s.ListAdminProfiles()
	if err != nil {
		t.Fatalf("ListAdminProfiles failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("admin-level count = %d, want 2", len(got))
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)

	if err := s.CreateSession("tok1", "actor1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	actor, err := s.SessionActor("tok1")
	if err != nil || actor != "actor1" {
		t.Fatalf("SessionActor = %q, %v; want actor1", actor, err)
	}
	if err := s.DeleteSession("tok1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := s.SessionActor("tok1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoked session should be gone, got %v", err)
	}
}

func TestNotificationsActiveFilter(t *testing.T) {
	s := setupTestStore(t)

	for _, n := range []Notification{
		{ID: "n1", Title: "Live", Active: true, CreatedAt: time.Now().UTC()},
		{ID: "n2", Title: "Hidden", Active: false, CreatedAt: time.Now().UTC()},
	} {
		if err := s.SaveNotification(n); err != nil {
			t.Fatalf("SaveNotification failed: %v", err)
		}
	}

	active, err := s.ListNotifications(true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "n1" {
		t.Errorf("active notifications = %+v, want just n1", active)
	}
	all, err := s.ListNotifications(false)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all notifications count = %d, want 2", len(all))
	}
}
