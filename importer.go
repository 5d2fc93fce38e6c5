package wandercms

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

var heroImportExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// HeroImportOptions controls a bulk hero image import.
type HeroImportOptions struct {
	Dir           string
	CaptionPrefix string
	Activate      bool
}

// HeroImportResult reports what a bulk import did. Report holds one line per
// file in processing order.
type HeroImportResult struct {
	Imported int
	Skipped  int
	Failed   int
	Report   []string
}

// ImportHeroImages scans a directory for images and creates a hero slide for
// each, continuing the sort order from the current count. Files whose name
// already backs a slide are skipped, and a single bad file never aborts the
// run.
func ImportHeroImages(store *Store, media *MediaStore, opts HeroImportOptions) (*HeroImportResult, error) {
	if opts.CaptionPrefix == "" {
		opts.CaptionPrefix = "Hero Image"
	}

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "reading import directory")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if heroImportExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	result := &HeroImportResult{}
	if len(files) == 0 {
		result.Report = append(result.Report, fmt.Sprintf("no image files found in %s", opts.Dir))
		return result, nil
	}

	count, err := store.CountHeroImages()
	if err != nil {
		return nil, err
	}
	order := int(count)

	for i, name := range files {
		// The pipeline re-encodes everything as JPEG, so match on the
		// processed filename rather than the source one.
		exists, err := store.HeroImageExists("/" + slugifyFilename(name) + ".jpg")
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			result.Report = append(result.Report, fmt.Sprintf("%s already exists, skipping", name))
			continue
		}

		webPath, err := importHeroFile(media, filepath.Join(opts.Dir, name))
		if err != nil {
			result.Failed++
			result.Report = append(result.Report, fmt.Sprintf("error importing %s: %v", name, err))
			continue
		}

		item := &HeroImage{
			Image:     webPath,
			Caption:   fmt.Sprintf("%s %d", opts.CaptionPrefix, i+1),
			IsActive:  opts.Activate,
			SortOrder: order,
		}
		if err := store.CreateHeroImage(item); err != nil {
			result.Failed++
			result.Report = append(result.Report, fmt.Sprintf("error importing %s: %v", name, err))
			continue
		}
		order++
		result.Imported++
		result.Report = append(result.Report, fmt.Sprintf("imported %s", name))
	}
	return result, nil
}

// importHeroFile runs a file on disk through the upload pipeline.
func importHeroFile(media *MediaStore, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrap(err, "opening image")
	}
	defer f.Close()
	return media.saveImageReader(f, filepath.Base(path), MediaHero)
}

// saveImageReader is the reader-based core of SaveImage, shared with the
// bulk importer.
func (m *MediaStore) saveImageReader(src io.Reader, originalName, subdir string) (string, error) {
	filename, data, err := processImage(src, originalName)
	if err != nil {
		return "", eris.Wrap(err, "processing image")
	}
	dir := filepath.Join(m.root, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "creating media directory")
	}
	filename = ensureUniqueFilename(dir, filename)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", eris.Wrap(err, "writing media file")
	}
	return "/media/" + subdir + "/" + filename, nil
}

// defaultPageHeroes are the seeds created by the seed-page-heroes command,
// inactive until staff attach an image.
var defaultPageHeroes = []struct {
	Page     PageKind
	Title    string
	Subtitle string
}{
	{PageCategories, "Explore Categories", "Discover content organized by topics and interests"},
	{PageDestination, "Amazing Destinations", "Explore incredible places around the world"},
	{PageAbout, "About Us", "Your gateway to extraordinary travel experiences"},
	{PageContact, "Get in Touch", "We'd love to hear from you"},
}

// SeedPageHeroes creates the missing page hero defaults and reports one line
// per page.
func SeedPageHeroes(store *Store) ([]string, error) {
	var report []string
	created := 0
	for _, seed := range defaultPageHeroes {
		ok, err := store.SeedPageHero(seed.Page, seed.Title, seed.Subtitle)
		if err != nil {
			return report, err
		}
		if ok {
			created++
			report = append(report, fmt.Sprintf("created %s page hero", seed.Page))
		} else {
			report = append(report, fmt.Sprintf("%s page hero already exists", seed.Page))
		}
	}
	if created > 0 {
		report = append(report, fmt.Sprintf("created %d page hero configurations (inactive until images are attached)", created))
	} else {
		report = append(report, "all page hero configurations already exist")
	}
	return report, nil
}
