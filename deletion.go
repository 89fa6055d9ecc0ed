package canchannels

import (
	"errors"
	"fmt"
)

// Deleter removes content and advertisement records, then best-effort
// cleans up any blob the record owned in the managed content-image
// namespace. The record deletion is the operation's source of truth: once
// it commits, compensation failure is logged and never surfaced.
type Deleter struct {
	store *Store
	blobs BlobStore
	log   *Logger
}

// NewDeleter wires a Deleter over the record and blob stores.
func NewDeleter(store *Store, blobs BlobStore, log *Logger) *Deleter {
	return &Deleter{store: store, blobs: blobs, log: log.With("component", "deletion")}
}

// DeletePost deletes a post and then attempts cover-image cleanup. Record
// deletion failure aborts before any blob call; an absent post is a no-op.
func (d *Deleter) DeletePost(id string) error {
	prior, err := d.store.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load post: %w", err)
	}
	if err := d.store.DeletePost(id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	d.cleanupBlob(prior.Image)
	return nil
}

// DeleteAdvertisement deletes an ad and then attempts image cleanup. The
// prior record may be passed by the caller; when nil it is loaded first.
func (d *Deleter) DeleteAdvertisement(id string, prior *Advertisement) error {
	if prior == nil {
		ad, err := d.store.GetAdvertisement(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return fmt.Errorf("load advertisement: %w", err)
		}
		prior = &ad
	}
	if err := d.store.DeleteAdvertisement(id); err != nil {
		return fmt.Errorf("delete advertisement: %w", err)
	}
	d.cleanupBlob(prior.ImageURL)
	return nil
}

// cleanupBlob removes the blob behind imageURL when it lives in the managed
// namespace. External URLs never trigger a blob call. Failure is a warning,
// not an error: the primary deletion has already committed.
func (d *Deleter) cleanupBlob(imageURL string) {
	key, ok := ManagedBlobKey(imageURL)
	if !ok {
		return
	}
	if err := d.blobs.Delete(key); err != nil {
		d.log.Warn("blob cleanup failed", "key", key, "error", err)
		return
	}
	if err := d.store.DeleteImage(key); err != nil {
		d.log.Warn("image metadata cleanup failed", "key", key, "error", err)
	}
}
