package wandercms

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &buf
}

func TestProcessImageReencodesAsJPEG(t *testing.T) {
	filename, data, err := processImage(encodePNG(t, 100, 50), "My Photo.PNG")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if filename != "my-photo.jpg" {
		t.Fatalf("unexpected filename %q", filename)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || format != "jpeg" {
		t.Fatalf("expected jpeg output, got %q %v", format, err)
	}
	if img.Bounds().Dx() != 100 {
		t.Fatalf("small image must not be resized, got width %d", img.Bounds().Dx())
	}
}

func TestProcessImageDownscalesWideImages(t *testing.T) {
	_, data, err := processImage(encodePNG(t, maxImageWidth*2, 400), "wide.png")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != maxImageWidth {
		t.Fatalf("expected downscale to %d, got %d", maxImageWidth, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 200 {
		t.Fatalf("expected aspect ratio preserved, got height %d", img.Bounds().Dy())
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, _, err := processImage(strings.NewReader("not an image"), "x.png"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEnsureUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	if got := ensureUniqueFilename(dir, "photo.jpg"); got != "photo.jpg" {
		t.Fatalf("free name should pass through, got %q", got)
	}

	for _, name := range []string{"photo.jpg", "photo-2.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := ensureUniqueFilename(dir, "photo.jpg"); got != "photo-3.jpg" {
		t.Fatalf("expected counter to skip taken names, got %q", got)
	}
}

func TestMediaStoreRemove(t *testing.T) {
	media := setupMediaStore(t)

	dir := filepath.Join(media.Root(), "hero")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "slide.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	media.Remove("/media/hero/slide.jpg")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}

	// Missing files and foreign paths are ignored.
	media.Remove("/media/hero/slide.jpg")
	media.Remove("/media/../etc/passwd")
	media.Remove("/static/other.jpg")
}

func TestSlugifyFilename(t *testing.T) {
	if got := slugifyFilename("Summer Trip 2026.JPEG"); got != "summer-trip-2026" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := slugifyFilename(".png"); got != "upload" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}
