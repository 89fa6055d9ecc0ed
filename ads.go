package canchannels

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AdService resolves advertisement placements and owns ad writes. Placement
// resolution never errors: no match is an empty result and the caller
// substitutes its configured fallback.
type AdService struct {
	store *Store
	log   *Logger
}

// NewAdService wires an AdService over the given store.
func NewAdService(store *Store, log *Logger) *AdService {
	return &AdService{store: store, log: log.With("component", "ads")}
}

// Resolve returns the most recently created active advertisement for a
// placement slot, or nil when none exists or the store fails.
func (a *AdService) Resolve(position AdPosition) *Advertisement {
	ads, err := a.store.ActiveAdvertisementsByPosition(position)
	if err != nil {
		a.log.Warn("resolve placement failed", "position", position, "error", err)
		return nil
	}
	if len(ads) == 0 {
		return nil
	}
	return &ads[0]
}

// List returns every advertisement for the admin surface. Store failures
// degrade to an empty slice.
func (a *AdService) List() []Advertisement {
	ads, err := a.store.ListAdvertisements()
	if err != nil {
		a.log.Warn("list advertisements failed", "error", err)
		return []Advertisement{}
	}
	return ads
}

// Get returns a single advertisement, or nil when absent.
func (a *AdService) Get(id string) *Advertisement {
	ad, err := a.store.GetAdvertisement(id)
	if err != nil {
		return nil
	}
	return &ad
}

// Create validates and inserts an advertisement. uploadedURL is the public
// URL of a freshly uploaded blob; it is mutually exclusive with a remote
// image URL already set on ad, and whichever is present becomes the
// authoritative ImageURL.
func (a *AdService) Create(ad Advertisement, uploadedURL string) (Advertisement, error) {
	if err := validateAd(&ad, uploadedURL); err != nil {
		return Advertisement{}, err
	}
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now().UTC()
	}
	if err := a.store.SaveAdvertisement(ad); err != nil {
		return Advertisement{}, fmt.Errorf("save advertisement: %w", err)
	}
	return ad, nil
}

// Update validates and rewrites an existing advertisement.
func (a *AdService) Update(ad Advertisement, uploadedURL string) error {
	if ad.ID == "" {
		return fmt.Errorf("%w: advertisement id is required", ErrValidation)
	}
	if err := validateAd(&ad, uploadedURL); err != nil {
		return err
	}
	if err := a.store.UpdateAdvertisement(ad); err != nil {
		return fmt.Errorf("update advertisement: %w", err)
	}
	return nil
}

// SetActive toggles an advertisement's active flag.
func (a *AdService) SetActive(id string, active bool) error {
	return a.store.SetAdvertisementActive(id, active)
}

func validateAd(ad *Advertisement, uploadedURL string) error {
	if strings.TrimSpace(ad.Title) == "" {
		return fmt.Errorf("%w: advertisement title is required", ErrValidation)
	}
	if strings.TrimSpace(ad.LinkURL) == "" {
		return fmt.Errorf("%w: advertisement link is required", ErrValidation)
	}
	if !ValidPosition(ad.Position) {
		return fmt.Errorf("%w: unknown placement position %q", ErrValidation, ad.Position)
	}
	if uploadedURL != "" && ad.ImageURL != "" {
		return fmt.Errorf("%w: provide either an image URL or an uploaded image, not both", ErrValidation)
	}
	if uploadedURL != "" {
		ad.ImageURL = uploadedURL
	}
	if ad.ImageURL == "" {
		return fmt.Errorf("%w: advertisement image is required", ErrValidation)
	}
	return nil
}
