package canchannels

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// ImageService processes uploaded images and stores them as managed blobs
// with a metadata row per upload.
type ImageService struct {
	store *Store
	blobs BlobStore
	log   *Logger
}

// NewImageService wires an ImageService over the record and blob stores.
func NewImageService(store *Store, blobs BlobStore, log *Logger) *ImageService {
	return &ImageService{store: store, blobs: blobs, log: log.With("component", "images")}
}

// Upload decodes an image, resizes it to maxImageWidth if wider, re-encodes
// it as JPEG, uploads it into the managed namespace under a unique key, and
// records its metadata.
func (s *ImageService) Upload(src io.Reader, originalName string) (Image, error) {
	img, data, err := processImage(src, originalName)
	if err != nil {
		return Image{}, err
	}
	if err := s.ensureUniqueFilename(&img); err != nil {
		return Image{}, err
	}
	url, err := s.blobs.Upload(img.Filename, data)
	if err != nil {
		return Image{}, err
	}
	img.URL = url
	if err := s.store.SaveImage(img); err != nil {
		return Image{}, fmt.Errorf("save image metadata: %w", err)
	}
	return img, nil
}

// List returns metadata for recent uploads, newest first. Store failures
// degrade to an empty slice.
func (s *ImageService) List() []Image {
	images, err := s.store.ListImages()
	if err != nil {
		s.log.Warn("list images failed", "error", err)
		return []Image{}
	}
	return images
}

// Delete removes an uploaded blob and its metadata row. The metadata row is
// the source of truth; a missing blob is tolerated.
func (s *ImageService) Delete(filename string) error {
	if err := s.blobs.Delete(filename); err != nil {
		s.log.Warn("blob delete failed", "filename", filename, "error", err)
	}
	return s.store.DeleteImage(filename)
}

// processImage decodes an image from src, optionally resizes it, and encodes
// it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("%w: decode image: %v", ErrValidation, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return Image{
		Filename:     slugifyFilename(originalName) + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	slug := Slugify(base)
	if slug == "" {
		slug = "image"
	}
	return slug
}

// ensureUniqueFilename appends a counter until the filename collides with
// neither a stored blob nor a metadata row.
func (s *ImageService) ensureUniqueFilename(img *Image) error {
	existingKeys, err := s.blobs.List("")
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(existingKeys))
	for _, k := range existingKeys {
		taken[k] = struct{}{}
	}
	for _, ex := range s.List() {
		taken[ex.Filename] = struct{}{}
	}

	base := strings.TrimSuffix(img.Filename, ".jpg")
	candidate := img.Filename
	for counter := 1; ; counter++ {
		if _, ok := taken[candidate]; !ok {
			break
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter+1)
	}
	img.Filename = candidate
	return nil
}
