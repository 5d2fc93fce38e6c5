package wandercms

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeTestPNG(t *testing.T, path string, width int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 10))
	for x := 0; x < width; x++ {
		img.Set(x, 5, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func setupMediaStore(t *testing.T) *MediaStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	media, err := NewMediaStore(filepath.Join(t.TempDir(), "media"), logger)
	if err != nil {
		t.Fatalf("create media store: %v", err)
	}
	return media
}

func TestImportHeroImages(t *testing.T) {
	s := setupTestStore(t)
	media := setupMediaStore(t)

	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "beach.png"), 20)
	writeTestPNG(t, filepath.Join(dir, "alps.png"), 20)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}

	result, err := ImportHeroImages(s, media, HeroImportOptions{Dir: dir, Activate: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	items, err := s.HeroImages(true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 active slides, got %d", len(items))
	}
	// Directory scan is sorted, so alps comes first with order 0.
	if items[0].SortOrder != 0 || items[1].SortOrder != 1 {
		t.Fatalf("expected sequential sort order, got %d %d", items[0].SortOrder, items[1].SortOrder)
	}
	if items[0].Caption != "Hero Image 1" {
		t.Fatalf("unexpected caption %q", items[0].Caption)
	}
}

func TestImportHeroImagesSkipsExisting(t *testing.T) {
	s := setupTestStore(t)
	media := setupMediaStore(t)

	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "beach.png"), 20)

	if _, err := ImportHeroImages(s, media, HeroImportOptions{Dir: dir}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := ImportHeroImages(s, media, HeroImportOptions{Dir: dir})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 1 {
		t.Fatalf("expected skip on re-import, got %+v", result)
	}
}

func TestImportHeroImagesContinuesSortOrder(t *testing.T) {
	s := setupTestStore(t)
	media := setupMediaStore(t)

	if err := s.CreateHeroImage(&HeroImage{Image: "/media/hero/existing.jpg", SortOrder: 0}); err != nil {
		t.Fatalf("seed existing: %v", err)
	}

	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "new.png"), 20)
	if _, err := ImportHeroImages(s, media, HeroImportOptions{Dir: dir}); err != nil {
		t.Fatalf("import: %v", err)
	}

	items, err := s.HeroImages(false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[1].SortOrder != 1 {
		t.Fatalf("expected import to continue order from count, got %+v", items)
	}
}

func TestImportHeroImagesSurvivesBadFile(t *testing.T) {
	s := setupTestStore(t)
	media := setupMediaStore(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	writeTestPNG(t, filepath.Join(dir, "good.png"), 20)

	result, err := ImportHeroImages(s, media, HeroImportOptions{Dir: dir})
	if err != nil {
		t.Fatalf("import should not abort: %v", err)
	}
	if result.Imported != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 imported and 1 failed, got %+v", result)
	}
}

func TestSeedPageHeroes(t *testing.T) {
	s := setupTestStore(t)

	report, err := SeedPageHeroes(s)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(report) == 0 {
		t.Fatalf("expected a report")
	}

	heroes, err := s.PageHeroes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(heroes) != len(PageKinds) {
		t.Fatalf("expected %d seeded heroes, got %d", len(PageKinds), len(heroes))
	}
	for _, h := range heroes {
		if h.IsActive {
			t.Fatalf("seeded hero %s must be inactive", h.Page)
		}
	}

	// Second run is a no-op.
	if _, err := SeedPageHeroes(s); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	heroes, err = s.PageHeroes()
	if err != nil {
		t.Fatalf("relist: %v", err)
	}
	if len(heroes) != len(PageKinds) {
		t.Fatalf("second seed must not duplicate, got %d", len(heroes))
	}
}
