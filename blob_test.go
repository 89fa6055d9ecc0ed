package canchannels

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestManagedBlobKey(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantKey string
		wantOK  bool
	}{
		{"managed url", "https://site.example/public/content-images/photo.jpg", "photo.jpg", true},
		{"query stripped", "https://site.example/public/content-images/photo.jpg?v=2", "photo.jpg", true},
		{"fragment stripped", "https://site.example/public/content-images/photo.jpg#top", "photo.jpg", true},
		{"external url", "https://cdn.elsewhere.com/photo.jpg", "", false},
		{"marker but no key", "https://site.example/public/content-images/", "", false},
		{"nested path rejected", "https://site.example/public/content-images/a/b.jpg", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := ManagedBlobKey(tt.url)
			if key != tt.wantKey || ok != tt.wantOK {
				t.Errorf("ManagedBlobKey(%q) = %q, %v; want %q, %v", tt.url, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

func TestLocalBlobStoreRoundtrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewLocalBlobStore(dir, "https://site.example/")
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}

	url, err := b.Upload("photo.jpg", []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	want := "https://site.example/public/content-images/photo.jpg"
	if url != want {
		t.Errorf("Upload URL = %q, want %q", url, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, ContentImageNamespace, "photo.jpg"))
	if err != nil {
		t.Fatalf("blob file missing: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("blob content = %q", data)
	}

	// The stored URL must round-trip through the deletion-compensation key
	// extraction.
	key, ok := ManagedBlobKey(url)
	if !ok || key != "photo.jpg" {
		t.Errorf("ManagedBlobKey(%q) = %q, %v", url, key, ok)
	}

	if err := b.Delete("photo.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ContentImageNamespace, "photo.jpg")); !os.IsNotExist(err) {
		t.Error("blob file should be removed")
	}
	// Absent keys delete cleanly.
	if err := b.Delete("photo.jpg"); err != nil {
		t.Errorf("deleting absent key should not error, got %v", err)
	}
}

func TestLocalBlobStoreList(t *testing.T) {
	b, err := NewLocalBlobStore(t.TempDir(), "https://site.example")
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	for _, key := range []string{"cover-2.jpg", "cover.jpg", "other.jpg"} {
		if _, err := b.Upload(key, []byte("x")); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}

	got, err := b.List("cover")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"cover-2.jpg", "cover.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestLocalBlobStoreRejectsBadKeys(t *testing.T) {
	b, err := NewLocalBlobStore(t.TempDir(), "https://site.example")
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	for _, key := range []string{"", "a/b.jpg", `a\b.jpg`, "../escape.jpg"} {
		if _, err := b.Upload(key, []byte("x")); err == nil {
			t.Errorf("Upload(%q) should be rejected", key)
		}
		if key != "" {
			if err := b.Delete(key); err == nil {
				t.Errorf("Delete(%q) should be rejected", key)
			}
		}
	}
}
