package wandercms

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// --- Hero images ---

// HeroImages returns hero slides ordered by sort order then creation time.
// With activeOnly set, inactive slides are excluded.
func (s *Store) HeroImages(activeOnly bool) ([]HeroImage, error) {
	q := s.db.Order("sort_order ASC, created_at ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var items []HeroImage
	if err := q.Find(&items).Error; err != nil {
		s.logError(nil, err, "listing hero images")
		return nil, eris.Wrap(err, "listing hero images")
	}
	return items, nil
}

// HeroImageByID returns a hero slide or ErrNotFound.
func (s *Store) HeroImageByID(id uint) (*HeroImage, error) {
	var item HeroImage
	if err := s.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateHeroImage validates and persists a hero slide.
func (s *Store) CreateHeroImage(h *HeroImage) error {
	if strings.TrimSpace(h.Image) == "" {
		return newValidationError("image", "An image is required.")
	}
	if err := s.db.Create(h).Error; err != nil {
		s.logError(logrus.Fields{"image": h.Image}, err, "creating hero image")
		return eris.Wrap(err, "creating hero image")
	}
	return nil
}

// ToggleHeroImage flips the active flag, leaving the sort order untouched,
// and returns the updated slide.
func (s *Store) ToggleHeroImage(id uint) (*HeroImage, error) {
	item, err := s.HeroImageByID(id)
	if err != nil {
		return nil, err
	}
	item.IsActive = !item.IsActive
	if err := s.db.Save(item).Error; err != nil {
		s.logError(logrus.Fields{"id": id}, err, "toggling hero image")
		return nil, eris.Wrap(err, "toggling hero image")
	}
	return item, nil
}

// DeleteHeroImage removes a hero slide. The stored blob is left behind.
func (s *Store) DeleteHeroImage(id uint) error {
	res := s.db.Delete(&HeroImage{}, id)
	if res.Error != nil {
		s.logError(logrus.Fields{"id": id}, res.Error, "deleting hero image")
		return eris.Wrap(res.Error, "deleting hero image")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountHeroImages returns the total slide count, used by the bulk importer to
// continue the sort-order sequence.
func (s *Store) CountHeroImages() (int64, error) {
	var n int64
	if err := s.db.Model(&HeroImage{}).Count(&n).Error; err != nil {
		return 0, eris.Wrap(err, "counting hero images")
	}
	return n, nil
}

// HeroImageExists reports whether any slide's stored path ends with filename.
func (s *Store) HeroImageExists(filename string) (bool, error) {
	var n int64
	err := s.db.Model(&HeroImage{}).Where("image LIKE ?", "%"+filename).Count(&n).Error
	if err != nil {
		return false, eris.Wrap(err, "checking hero image filename")
	}
	return n > 0, nil
}

// --- Page hero images ---

// PageHeroes returns every page hero ordered by page identifier.
func (s *Store) PageHeroes() ([]PageHeroImage, error) {
	var items []PageHeroImage
	if err := s.db.Order("page ASC").Find(&items).Error; err != nil {
		s.logError(nil, err, "listing page heroes")
		return nil, eris.Wrap(err, "listing page heroes")
	}
	return items, nil
}

// PageHeroByID returns a page hero or ErrNotFound.
func (s *Store) PageHeroByID(id uint) (*PageHeroImage, error) {
	var item PageHeroImage
	if err := s.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ActivePageHero returns the active hero for a page, or nil when the page has
// none. Absence is not an error; the page renders without a banner.
func (s *Store) ActivePageHero(page PageKind) (*PageHeroImage, error) {
	var item PageHeroImage
	err := s.db.Where("page = ? AND is_active = ?", page, true).First(&item).Error
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			return nil, nil
		}
		s.logError(logrus.Fields{"page": page}, err, "fetching page hero")
		return nil, eris.Wrap(err, "fetching page hero")
	}
	return &item, nil
}

// CreatePageHero validates and persists a page hero. The unique index on page
// backs the friendly existence check here.
func (s *Store) CreatePageHero(h *PageHeroImage) error {
	if !h.Page.Valid() {
		return newValidationError("page", "Unknown page identifier.")
	}
	if strings.TrimSpace(h.Image) == "" {
		return newValidationError("image", "Please select an image for the hero section.")
	}
	var count int64
	if err := s.db.Model(&PageHeroImage{}).Where("page = ?", h.Page).Count(&count).Error; err != nil {
		return eris.Wrap(err, "checking page hero existence")
	}
	if count > 0 {
		return newValidationError("page", "A hero image for "+h.Page.DisplayName()+" already exists.")
	}
	if err := s.db.Create(h).Error; err != nil {
		s.logError(logrus.Fields{"page": h.Page}, err, "creating page hero")
		return eris.Wrap(err, "creating page hero")
	}
	return nil
}

// UpdatePageHero persists changes to a page hero. Moving it to a page that
// already has one is rejected.
func (s *Store) UpdatePageHero(h *PageHeroImage) error {
	if !h.Page.Valid() {
		return newValidationError("page", "Unknown page identifier.")
	}
	var count int64
	if err := s.db.Model(&PageHeroImage{}).Where("page = ? AND id <> ?", h.Page, h.ID).Count(&count).Error; err != nil {
		return eris.Wrap(err, "checking page hero existence")
	}
	if count > 0 {
		return newValidationError("page", "A hero image for "+h.Page.DisplayName()+" already exists.")
	}
	if err := s.db.Save(h).Error; err != nil {
		s.logError(logrus.Fields{"id": h.ID}, err, "updating page hero")
		return eris.Wrap(err, "updating page hero")
	}
	return nil
}

// DeletePageHero removes a page hero.
func (s *Store) DeletePageHero(id uint) error {
	res := s.db.Delete(&PageHeroImage{}, id)
	if res.Error != nil {
		s.logError(logrus.Fields{"id": id}, res.Error, "deleting page hero")
		return eris.Wrap(res.Error, "deleting page hero")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedPageHero creates an inactive, imageless default for a page so staff can
// attach an image later. Returns false when the page already has a record.
func (s *Store) SeedPageHero(page PageKind, title, subtitle string) (bool, error) {
	if !page.Valid() {
		return false, newValidationError("page", "Unknown page identifier.")
	}
	var count int64
	if err := s.db.Model(&PageHeroImage{}).Where("page = ?", page).Count(&count).Error; err != nil {
		return false, eris.Wrap(err, "checking page hero existence")
	}
	if count > 0 {
		return false, nil
	}
	h := &PageHeroImage{Page: page, Title: title, Subtitle: subtitle, IsActive: false}
	if err := s.db.Create(h).Error; err != nil {
		return false, eris.Wrap(err, "seeding page hero")
	}
	return true, nil
}

// --- Home mini videos ---

// MiniVideos returns every mini video, newest first.
func (s *Store) MiniVideos() ([]HomeMiniVideo, error) {
	var items []HomeMiniVideo
	if err := s.db.Order("created_at DESC").Find(&items).Error; err != nil {
		s.logError(nil, err, "listing mini videos")
		return nil, eris.Wrap(err, "listing mini videos")
	}
	return items, nil
}

// MiniVideoByID returns a mini video or ErrNotFound.
func (s *Store) MiniVideoByID(id uint) (*HomeMiniVideo, error) {
	var item HomeMiniVideo
	if err := s.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ActiveMiniVideo returns the first active mini video in creation order, or
// nil when none is active.
func (s *Store) ActiveMiniVideo() (*HomeMiniVideo, error) {
	var item HomeMiniVideo
	err := s.db.Where("is_active = ?", true).Order("id ASC").First(&item).Error
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			return nil, nil
		}
		s.logError(nil, err, "fetching active mini video")
		return nil, eris.Wrap(err, "fetching active mini video")
	}
	return &item, nil
}

func validateMiniVideo(v *HomeMiniVideo) error {
	hasFile := strings.TrimSpace(v.VideoFile) != ""
	hasURL := strings.TrimSpace(v.YoutubeURL) != ""
	if !hasFile && !hasURL {
		return newValidationError("video_file", "Please provide either a video file or a video URL.")
	}
	if hasFile && hasURL {
		return newValidationError("video_file", "Please provide either a video file or a video URL, not both.")
	}
	return nil
}

// CreateMiniVideo validates and persists a mini video. Exactly one of the
// file and the URL must be set.
func (s *Store) CreateMiniVideo(v *HomeMiniVideo) error {
	if err := validateMiniVideo(v); err != nil {
		return err
	}
	if err := s.db.Create(v).Error; err != nil {
		s.logError(nil, err, "creating mini video")
		return eris.Wrap(err, "creating mini video")
	}
	return nil
}

// UpdateMiniVideo persists changes under the same mutual-exclusion rule.
func (s *Store) UpdateMiniVideo(v *HomeMiniVideo) error {
	if err := validateMiniVideo(v); err != nil {
		return err
	}
	if err := s.db.Save(v).Error; err != nil {
		s.logError(logrus.Fields{"id": v.ID}, err, "updating mini video")
		return eris.Wrap(err, "updating mini video")
	}
	return nil
}

// DeleteMiniVideo removes a mini video record.
func (s *Store) DeleteMiniVideo(id uint) error {
	res := s.db.Delete(&HomeMiniVideo{}, id)
	if res.Error != nil {
		s.logError(logrus.Fields{"id": id}, res.Error, "deleting mini video")
		return eris.Wrap(res.Error, "deleting mini video")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
