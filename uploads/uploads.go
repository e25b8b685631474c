// Package uploads stores cover and gallery images for tours and destinations.
package uploads

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"tourbook/utils"
)

const (
	ImageWidth       = 2000
	ImageHeight      = 1333
	MaxGalleryImages = 3
	maxUploadBytes   = 20 << 20
	jpegQuality      = 90
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// Store writes processed images below Dir/<entity>/.
type Store struct {
	Dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Saved holds the stored file names; empty fields mean nothing was uploaded for them.
type Saved struct {
	Cover  string
	Images []string
}

// SaveEntityImages reads the imageCover and images multipart fields, crops each upload to
// 2000x1333 and stores it as JPEG.
func (s *Store) SaveEntityImages(r *http.Request, entity, id string) (*Saved, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, utils.BadRequest("Expected a multipart form with imageCover and/or images")
	}

	stamp := s.now().UnixMilli()
	out := &Saved{}

	if covers := r.MultipartForm.File["imageCover"]; len(covers) > 0 {
		name := fmt.Sprintf("%s-%s-%d-cover.jpeg", entity, id, stamp)
		if err := s.saveImage(covers[0], entity, name); err != nil {
			return nil, err
		}
		out.Cover = name
	}

	gallery := r.MultipartForm.File["images"]
	if len(gallery) > MaxGalleryImages {
		return nil, utils.BadRequest(fmt.Sprintf("At most %d images are allowed", MaxGalleryImages))
	}
	for i, fh := range gallery {
		name := fmt.Sprintf("%s-%s-%d-%d.jpeg", entity, id, stamp, i+1)
		if err := s.saveImage(fh, entity, name); err != nil {
			return nil, err
		}
		out.Images = append(out.Images, name)
	}

	if out.Cover == "" && len(out.Images) == 0 {
		return nil, utils.BadRequest("No images uploaded")
	}
	return out, nil
}

func (s *Store) saveImage(fh *multipart.FileHeader, entity, name string) error {
	if ct := fh.Header.Get("Content-Type"); ct != "" && !supportedImageTypes[ct] {
		return utils.BadRequest("Invalid file type. Supported formats: JPEG, PNG, GIF, BMP, TIFF.")
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return utils.BadRequest("Uploaded file is not a readable image")
	}

	dir := filepath.Join(s.Dir, entity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	resized := imaging.Fill(img, ImageWidth, ImageHeight, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(resized, filepath.Join(dir, name), imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
