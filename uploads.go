package wandercms

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 20 << 20 // 20MB

	mediaURLPrefix = "/media/"
)

// Media subdirectories, one per content kind.
const (
	MediaHero             = "hero"
	MediaPosts            = "posts"
	MediaDestinations     = "destinations"
	MediaDestinationVideo = "destinations/video"
	MediaCities           = "cities"
	MediaPageHero         = "page_hero"
	MediaHomeVideo        = "home/video"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// MediaStore writes uploaded files under a root directory and hands back the
// web paths stored on the entities.
type MediaStore struct {
	root   string
	logger *logrus.Logger
}

// NewMediaStore ensures the media root exists and returns a store rooted there.
func NewMediaStore(root string, logger *logrus.Logger) (*MediaStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrap(err, "creating media root")
	}
	return &MediaStore{root: root, logger: logger}, nil
}

// Root returns the filesystem directory served under /media/.
func (m *MediaStore) Root() string { return m.root }

// SaveImage processes an uploaded image and writes it under subdir, returning
// the web path to store on the entity. Images wider than maxImageWidth are
// downscaled and everything is re-encoded as JPEG.
func (m *MediaStore) SaveImage(file *multipart.FileHeader, subdir string) (string, error) {
	if file.Size > maxUploadSize {
		return "", newValidationError("image", "File too large (max 20MB).")
	}
	src, err := file.Open()
	if err != nil {
		return "", eris.Wrap(err, "opening upload")
	}
	defer src.Close()

	webPath, err := m.saveImageReader(src, file.Filename, subdir)
	if err != nil {
		if errors.Is(err, errBadImage) {
			return "", newValidationError("image", "Invalid image file.")
		}
		m.logger.WithField("file", file.Filename).WithField("error", err.Error()).Error("saving media file")
		return "", err
	}
	return webPath, nil
}

// SaveVideo stores an uploaded video as-is under subdir. Only common web
// formats are accepted; nothing is transcoded.
func (m *MediaStore) SaveVideo(file *multipart.FileHeader, subdir string) (string, error) {
	if file.Size > maxUploadSize {
		return "", newValidationError("video_file", "File too large (max 20MB).")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !videoExtensions[ext] {
		return "", newValidationError("video_file", "Unsupported video format. Use MP4, WebM, or MOV.")
	}

	src, err := file.Open()
	if err != nil {
		return "", eris.Wrap(err, "opening upload")
	}
	defer src.Close()

	dir := filepath.Join(m.root, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "creating media directory")
	}
	filename := ensureUniqueFilename(dir, slugifyFilename(file.Filename)+ext)

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", eris.Wrap(err, "creating media file")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		m.logger.WithField("file", filename).WithField("error", err.Error()).Error("writing media file")
		return "", eris.Wrap(err, "writing media file")
	}
	return path.Join(mediaURLPrefix, subdir, filename), nil
}

// Remove deletes the file behind a stored web path. A missing file is not an
// error; records can outlive their blobs.
func (m *MediaStore) Remove(webPath string) {
	rel, ok := strings.CutPrefix(webPath, mediaURLPrefix)
	if !ok || rel == "" {
		return
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(m.root, rel)); err != nil && !os.IsNotExist(err) {
		m.logger.WithField("path", webPath).WithField("error", err.Error()).Warn("removing media file")
	}
}

// errBadImage marks decode failures so upload handlers can surface them as
// field errors instead of 500s.
var errBadImage = errors.New("unsupported or corrupt image")

// processImage decodes an image, downscales it when wider than maxImageWidth,
// and re-encodes it as JPEG. Returns the slugified filename and the bytes.
func processImage(src io.Reader, originalName string) (string, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", errBadImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return slugifyFilename(originalName) + ".jpg", buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	slug := Slugify(base)
	if slug == "" {
		slug = "upload"
	}
	return slug
}

// ensureUniqueFilename appends a counter until the name is free in dir.
func ensureUniqueFilename(dir, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	candidate := filename
	for counter := 2; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", base, counter, ext)
	}
}

// formImage pulls an optional image upload from the request and stores it.
// Returns "" when the field was left empty.
func (a *App) formImage(c echo.Context, field, subdir string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", eris.Wrap(err, "reading form file")
	}
	return a.media.SaveImage(file, subdir)
}

// formVideo pulls an optional video upload from the request and stores it.
func (a *App) formVideo(c echo.Context, field, subdir string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", eris.Wrap(err, "reading form file")
	}
	return a.media.SaveVideo(file, subdir)
}
