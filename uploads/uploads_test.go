package uploads

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, files map[string][][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, contents := range files {
		for i, data := range contents {
			hdr := make(textproto.MIMEHeader)
			hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="f`+string(rune('a'+i))+`.png"`)
			hdr.Set("Content-Type", "image/png")
			part, err := mw.CreatePart(hdr)
			if err != nil {
				t.Fatalf("create part: %v", err)
			}
			part.Write(data)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/tours/x/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSaveEntityImagesResizes(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	req := multipartRequest(t, map[string][][]byte{
		"imageCover": {pngBytes(t, 400, 300)},
		"images":     {pngBytes(t, 120, 90), pngBytes(t, 90, 120)},
	})

	saved, err := s.SaveEntityImages(req, "tour", "abc")
	if err != nil {
		t.Fatalf("SaveEntityImages returned error: %v", err)
	}
	if saved.Cover != "tour-abc-1700000000000-cover.jpeg" {
		t.Errorf("unexpected cover name %q", saved.Cover)
	}
	if len(saved.Images) != 2 {
		t.Fatalf("expected 2 gallery images, got %d", len(saved.Images))
	}

	img, err := imaging.Open(filepath.Join(dir, "tour", saved.Cover))
	if err != nil {
		t.Fatalf("open saved cover: %v", err)
	}
	if b := img.Bounds(); b.Dx() != ImageWidth || b.Dy() != ImageHeight {
		t.Errorf("expected %dx%d, got %dx%d", ImageWidth, ImageHeight, b.Dx(), b.Dy())
	}
}

func TestSaveEntityImagesRejectsTooMany(t *testing.T) {
	s := NewStore(t.TempDir())
	img := pngBytes(t, 10, 10)
	req := multipartRequest(t, map[string][][]byte{
		"images": {img, img, img, img},
	})

	if _, err := s.SaveEntityImages(req, "tour", "abc"); err == nil {
		t.Fatal("expected error for more than 3 gallery images")
	}
}

func TestSaveEntityImagesRequiresAFile(t *testing.T) {
	s := NewStore(t.TempDir())
	req := multipartRequest(t, map[string][][]byte{})

	if _, err := s.SaveEntityImages(req, "tour", "abc"); err == nil {
		t.Fatal("expected error when nothing was uploaded")
	}
}
