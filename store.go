package canchannels

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD operations for posts,
// advertisements, actor profiles, notifications, sessions, and uploaded
// image metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of failing with SQLITE_BUSY, synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtitle TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    content_top TEXT NOT NULL DEFAULT '',
    media TEXT NOT NULL DEFAULT '[]',
    content_bottom TEXT NOT NULL DEFAULT '',
    keywords TEXT NOT NULL DEFAULT '',
    links TEXT NOT NULL DEFAULT '[]',
    featured INTEGER NOT NULL DEFAULT 0,
    image TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS advertisements (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    link_url TEXT NOT NULL,
    position TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    permissions TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
    token_id TEXT PRIMARY KEY,
    actor_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    youtube_link TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    size INTEGER NOT NULL DEFAULT 0,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, subtitle, category, content, content_top, media, content_bottom, keywords, links, featured, image, created_at`

func scanPost(rows interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var media, links, createdAt string
	var featured int
	if err := rows.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Category, &p.Content,
		&p.ContentTop, &media, &p.ContentBot, &p.Keywords, &links,
		&featured, &p.Image, &createdAt); err != nil {
		return Post{}, err
	}
	p.Featured = featured == 1
	p.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(media), &p.Media); err != nil {
		p.Media = nil
	}
	if err := json.Unmarshal([]byte(links), &p.Links); err != nil {
		p.Links = nil
	}
	return p, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns all posts ordered by creation time descending.
func (s *Store) ListPosts() ([]Post, error) {
	return s.queryPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`)
}

// ListPostsByCategory returns posts whose raw category equals category.
func (s *Store) ListPostsByCategory(category string) ([]Post, error) {
	return s.queryPosts(`SELECT `+postColumns+` FROM posts WHERE category = ? ORDER BY created_at DESC`, category)
}

// ListFeaturedPosts returns posts flagged as featured.
func (s *Store) ListFeaturedPosts() ([]Post, error) {
	return s.queryPosts(`SELECT ` + postColumns + ` FROM posts WHERE featured = 1 ORDER BY created_at DESC`)
}

// SearchPosts returns posts whose title, subtitle, or any body field
// case-insensitively contains query.
func (s *Store) SearchPosts(query string) ([]Post, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.queryPosts(`SELECT `+postColumns+` FROM posts
		WHERE lower(title) LIKE ? OR lower(subtitle) LIKE ? OR lower(content) LIKE ?
		   OR lower(content_top) LIKE ? OR lower(content_bottom) LIKE ?
		ORDER BY created_at DESC`, pattern, pattern, pattern, pattern, pattern)
}

// MatchPostsByKeywords returns posts whose keyword field contains any of the
// given lowercase tokens as a substring, excluding excludeID, newest first,
// capped at limit.
func (s *Store) MatchPostsByKeywords(tokens []string, excludeID string, limit int) ([]Post, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	var conds []string
	var args []any
	for _, t := range tokens {
		conds = append(conds, `instr(lower(keywords), ?) > 0`)
		args = append(args, t)
	}
	q := `SELECT ` + postColumns + ` FROM posts WHERE (` + strings.Join(conds, " OR ") + `)`
	if excludeID != "" {
		q += ` AND id != ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)
	return s.queryPosts(q, args...)
}

// GetPost returns a single post by id.
func (s *Store) GetPost(id string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// SavePost inserts a post.
func (s *Store) SavePost(p Post) error {
	media, links, err := marshalPostJSON(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Subtitle, p.Category, p.Content, p.ContentTop, media,
		p.ContentBot, p.Keywords, links, boolInt(p.Featured), p.Image, formatTime(p.CreatedAt))
	return err
}

// UpdatePost rewrites every mutable field of an existing post.
func (s *Store) UpdatePost(p Post) error {
	media, links, err := marshalPostJSON(p)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE posts SET title = ?, subtitle = ?, category = ?, content = ?,
		content_top = ?, media = ?, content_bottom = ?, keywords = ?, links = ?, featured = ?, image = ?
		WHERE id = ?`,
		p.Title, p.Subtitle, p.Category, p.Content, p.ContentTop, media,
		p.ContentBot, p.Keywords, links, boolInt(p.Featured), p.Image, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(id string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}

func marshalPostJSON(p Post) (media, links string, err error) {
	m, err := json.Marshal(emptyIfNilStrings(p.Media))
	if err != nil {
		return "", "", err
	}
	l, err := json.Marshal(emptyIfNilLinks(p.Links))
	if err != nil {
		return "", "", err
	}
	return string(m), string(l), nil
}

const adColumns = `id, title, description, image_url, link_url, position, is_active, created_at`

func scanAd(rows interface{ Scan(...any) error }) (Advertisement, error) {
	var ad Advertisement
	var active int
	var position, createdAt string
	if err := rows.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.ImageURL,
		&ad.LinkURL, &position, &active, &createdAt); err != nil {
		return Advertisement{}, err
	}
	ad.Position = AdPosition(position)
	ad.Active = active == 1
	ad.CreatedAt = parseTime(createdAt)
	return ad, nil
}

func (s *Store) queryAds(query string, args ...any) ([]Advertisement, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []Advertisement
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// ListAdvertisements returns every advertisement, newest first.
func (s *Store) ListAdvertisements() ([]Advertisement, error) {
	return s.queryAds(`SELECT ` + adColumns + ` FROM advertisements ORDER BY created_at DESC`)
}

// ActiveAdvertisementsByPosition returns active ads for a slot, newest first.
func (s *Store) ActiveAdvertisementsByPosition(position AdPosition) ([]Advertisement, error) {
	return s.queryAds(`SELECT `+adColumns+` FROM advertisements
		WHERE position = ? AND is_active = 1 ORDER BY created_at DESC`, string(position))
}

// GetAdvertisement returns a single advertisement by id.
func (s *Store) GetAdvertisement(id string) (Advertisement, error) {
	row := s.db.QueryRow(`SELECT `+adColumns+` FROM advertisements WHERE id = ?`, id)
	return scanAd(row)
}

// SaveAdvertisement inserts an advertisement.
func (s *Store) SaveAdvertisement(ad Advertisement) error {
	_, err := s.db.Exec(`INSERT INTO advertisements (`+adColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.ID, ad.Title, ad.Description, ad.ImageURL, ad.LinkURL,
		string(ad.Position), boolInt(ad.Active), formatTime(ad.CreatedAt))
	return err
}

// UpdateAdvertisement rewrites an existing advertisement's mutable fields.
func (s *Store) UpdateAdvertisement(ad Advertisement) error {
	res, err := s.db.Exec(`UPDATE advertisements SET title = ?, description = ?, image_url = ?,
		link_url = ?, position = ?, is_active = ? WHERE id = ?`,
		ad.Title, ad.Description, ad.ImageURL, ad.LinkURL,
		string(ad.Position), boolInt(ad.Active), ad.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetAdvertisementActive flips the active flag on an advertisement.
func (s *Store) SetAdvertisementActive(id string, active bool) error {
	res, err := s.db.Exec(`UPDATE advertisements SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAdvertisement removes an advertisement by id.
func (s *Store) DeleteAdvertisement(id string) error {
	_, err := s.db.Exec(`DELETE FROM advertisements WHERE id = ?`, id)
	return err
}

// CreateAccount inserts a credential record for an actor.
func (s *Store) CreateAccount(id, email, passwordHash string) error {
	_, err := s.db.Exec(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, passwordHash, formatTime(time.Now().UTC()))
	return err
}

// GetAccountByEmail returns an actor id and password hash for a login email.
func (s *Store) GetAccountByEmail(email string) (id, passwordHash string, err error) {
	err = s.db.QueryRow(`SELECT id, password_hash FROM accounts WHERE email = ?`, email).
		Scan(&id, &passwordHash)
	return id, passwordHash, err
}

// DeleteAccount removes a credential record.
func (s *Store) DeleteAccount(id string) error {
	_, err := s.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	return err
}

func scanProfile(rows interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	var role, permissions, createdAt string
	if err := rows.Scan(&p.ID, &p.Email, &role, &permissions, &createdAt); err != nil {
		return Profile{}, err
	}
	p.Role = Role(role)
	p.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(permissions), &p.Permissions); err != nil {
		p.Permissions = PermissionSet{}
	}
	return p, nil
}

// SaveProfile inserts a profile row.
func (s *Store) SaveProfile(p Profile) error {
	perms, err := json.Marshal(p.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO profiles (id, email, role, permissions, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, string(p.Role), string(perms), formatTime(p.CreatedAt))
	return err
}

// GetProfile returns the profile for an actor id.
func (s *Store) GetProfile(id string) (Profile, error) {
	row := s.db.QueryRow(`SELECT id, email, role, permissions, created_at FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// ListAdminProfiles returns every profile whose role is admin-level.
func (s *Store) ListAdminProfiles() ([]Profile, error) {
	rows, err := s.db.Query(`SELECT id, email, role, permissions, created_at FROM profiles
		WHERE role IN ('admin', 'moderator', 'editor') ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfileRole sets the role on a profile without touching permissions.
func (s *Store) UpdateProfileRole(id string, role Role) error {
	res, err := s.db.Exec(`UPDATE profiles SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateProfileAccess sets role and the explicit permission set together.
func (s *Store) UpdateProfileAccess(id string, role Role, perms PermissionSet) error {
	data, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE profiles SET role = ?, permissions = ? WHERE id = ?`,
		string(role), string(data), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProfile removes a profile row.
func (s *Store) DeleteProfile(id string) error {
	_, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	return err
}

// CreateSession records an issued session token id for later revocation checks.
func (s *Store) CreateSession(tokenID, actorID string) error {
	_, err := s.db.Exec(`INSERT INTO sessions (token_id, actor_id, created_at) VALUES (?, ?, ?)`,
		tokenID, actorID, formatTime(time.Now().UTC()))
	return err
}

// SessionActor returns the actor id for a live (unrevoked) session token.
func (s *Store) SessionActor(tokenID string) (string, error) {
	var actorID string
	err := s.db.QueryRow(`SELECT actor_id FROM sessions WHERE token_id = ?`, tokenID).Scan(&actorID)
	return actorID, err
}

// DeleteSession revokes a session token.
func (s *Store) DeleteSession(tokenID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token_id = ?`, tokenID)
	return err
}

// DeleteSessionsForActor revokes every session belonging to an actor.
func (s *Store) DeleteSessionsForActor(actorID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE actor_id = ?`, actorID)
	return err
}

func scanNotification(rows interface{ Scan(...any) error }) (Notification, error) {
	var n Notification
	var active int
	var createdAt string
	if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.YoutubeLink, &active, &createdAt); err != nil {
		return Notification{}, err
	}
	n.Active = active == 1
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}

// ListNotifications returns notifications newest first. When activeOnly is
// set, inactive rows are excluded.
func (s *Store) ListNotifications(activeOnly bool) ([]Notification, error) {
	q := `SELECT id, title, message, youtube_link, is_active, created_at FROM notifications`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// SaveNotification inserts a notification.
func (s *Store) SaveNotification(n Notification) error {
	_, err := s.db.Exec(`INSERT INTO notifications (id, title, message, youtube_link, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Message, n.YoutubeLink, boolInt(n.Active), formatTime(n.CreatedAt))
	return err
}

// UpdateNotification rewrites an existing notification's mutable fields.
func (s *Store) UpdateNotification(n Notification) error {
	res, err := s.db.Exec(`UPDATE notifications SET title = ?, message = ?, youtube_link = ?, is_active = ?
		WHERE id = ?`, n.Title, n.Message, n.YoutubeLink, boolInt(n.Active), n.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteNotification removes a notification by id.
func (s *Store) DeleteNotification(id string) error {
	_, err := s.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	return err
}

// SaveImage records metadata for an uploaded blob.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, url, width, height, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.URL, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns uploaded image metadata, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, url, width, height, size, uploaded_at
		FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.URL,
			&img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes uploaded image metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func emptyIfNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyIfNilLinks(v []Link) []Link {
	if v == nil {
		return []Link{}
	}
	return v
}
