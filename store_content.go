package wandercms

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PublicPageSize is the fixed page size for public post listings.
const PublicPageSize = 15

// HomeRailSize caps the featured and article rails on the home page.
const HomeRailSize = 12

// PostFilter narrows public post queries. All fields are optional.
type PostFilter struct {
	Query      string // case-insensitive OR match on title, description, category name
	CategoryID uint
	Featured   bool
	Articles   bool
	Limit      int
}

// withLimit returns a copy of the filter capped at n results.
func (f PostFilter) withLimit(n int) PostFilter {
	f.Limit = n
	return f
}

// featured returns a copy of the filter narrowed to featured posts.
func (f PostFilter) featured() PostFilter {
	f.Featured = true
	return f
}

// articles returns a copy of the filter narrowed to articles.
func (f PostFilter) articles() PostFilter {
	f.Articles = true
	return f
}

// PostPage is one page of a public post listing.
type PostPage struct {
	Items      []Post
	Number     int
	TotalPages int
	Total      int64
}

// HasPrev reports whether an earlier page exists.
func (p PostPage) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p PostPage) HasNext() bool { return p.Number < p.TotalPages }

// PrevNumber returns the previous page number, clamped to the first page.
func (p PostPage) PrevNumber() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return 1
}

// NextNumber returns the next page number, clamped to the last page.
func (p PostPage) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.TotalPages
}

func (s *Store) publishedPostQuery(f PostFilter) *gorm.DB {
	q := s.db.Model(&Post{}).Where("posts.is_published = ?", true)

	if f.Query != "" {
		needle := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Joins("LEFT JOIN post_categories ON post_categories.post_id = posts.id").
			Joins("LEFT JOIN categories ON categories.id = post_categories.category_id").
			Where("LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ? OR LOWER(categories.name) LIKE ?",
				needle, needle, needle).
			Distinct("posts.*")
	}
	if f.CategoryID != 0 {
		q = q.Joins("JOIN post_categories pc_filter ON pc_filter.post_id = posts.id AND pc_filter.category_id = ?", f.CategoryID)
	}
	if f.Featured {
		q = q.Where("posts.is_featured = ?", true)
	}
	if f.Articles {
		q = q.Where("posts.is_article = ?", true)
	}
	return q.Order("posts.published_at DESC, posts.created_at DESC")
}

// PublishedPosts returns public posts matching the filter. Unpublished posts
// never appear regardless of the filter.
func (s *Store) PublishedPosts(f PostFilter) ([]Post, error) {
	q := s.publishedPostQuery(f).Preload("Categories")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		s.logError(logrus.Fields{"query": f.Query}, err, "listing published posts")
		return nil, eris.Wrap(err, "listing published posts")
	}
	return posts, nil
}

// PublishedPostPage returns one page of public posts. Page numbers are
// 1-based; out-of-range values clamp to the nearest valid page.
func (s *Store) PublishedPostPage(f PostFilter, page int) (PostPage, error) {
	var total int64
	if err := s.publishedPostQuery(f).Distinct("posts.id").Count(&total).Error; err != nil {
		s.logError(logrus.Fields{"query": f.Query}, err, "counting published posts")
		return PostPage{}, eris.Wrap(err, "counting published posts")
	}

	totalPages := int((total + PublicPageSize - 1) / PublicPageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	var posts []Post
	err := s.publishedPostQuery(f).
		Preload("Categories").
		Offset((page - 1) * PublicPageSize).
		Limit(PublicPageSize).
		Find(&posts).Error
	if err != nil {
		s.logError(logrus.Fields{"query": f.Query, "page": page}, err, "paging published posts")
		return PostPage{}, eris.Wrap(err, "paging published posts")
	}

	return PostPage{Items: posts, Number: page, TotalPages: totalPages, Total: total}, nil
}

// PostBySlug returns a post with its categories and links, or ErrNotFound.
// With publishedOnly set, drafts behave as missing.
func (s *Store) PostBySlug(slug string, publishedOnly bool) (*Post, error) {
	q := s.db.Preload("Categories").Preload("Links", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var post Post
	if err := q.First(&post, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// PostByID returns a post with its categories and links, or ErrNotFound.
func (s *Store) PostByID(id uint) (*Post, error) {
	var post Post
	err := s.db.Preload("Categories").Preload("Links", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// AdminPosts lists every post (drafts included) newest first, optionally
// filtered by a case-insensitive title substring.
func (s *Store) AdminPosts(query string) ([]Post, error) {
	q := s.db.Preload("Categories").Order("created_at DESC")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var posts []Post
	if err := q.Find(&posts).Error; err != nil {
		s.logError(logrus.Fields{"query": query}, err, "listing admin posts")
		return nil, eris.Wrap(err, "listing admin posts")
	}
	return posts, nil
}

func (s *Store) validatePost(p *Post) error {
	p.Title = strings.TrimSpace(p.Title)
	fields := map[string]string{}
	if p.Title == "" {
		fields["title"] = "Title is required."
	}
	if strings.TrimSpace(p.Description) == "" {
		fields["description"] = "Description is required."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreatePost validates and persists a post and attaches its categories.
func (s *Store) CreatePost(p *Post, categoryIDs []uint) error {
	if err := s.validatePost(p); err != nil {
		return err
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	slug, err := dedupeSlug(p.Slug, func(candidate string) (bool, error) {
		var n int64
		err := s.db.Model(&Post{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return eris.Wrap(err, "deduplicating post slug")
	}
	p.Slug = slug

	if err := s.db.Omit("Categories", "Links").Create(p).Error; err != nil {
		s.logError(logrus.Fields{"title": p.Title}, err, "creating post")
		return eris.Wrap(err, "creating post")
	}
	return s.replacePostCategories(p, categoryIDs)
}

// UpdatePost persists changes to an existing post and replaces its category
// set. The slug is immutable.
func (s *Store) UpdatePost(p *Post, categoryIDs []uint) error {
	if err := s.validatePost(p); err != nil {
		return err
	}
	if err := s.db.Omit("Categories", "Links").Save(p).Error; err != nil {
		s.logError(logrus.Fields{"id": p.ID}, err, "updating post")
		return eris.Wrap(err, "updating post")
	}
	return s.replacePostCategories(p, categoryIDs)
}

func (s *Store) replacePostCategories(p *Post, categoryIDs []uint) error {
	var cats []Category
	if len(categoryIDs) > 0 {
		if err := s.db.Find(&cats, categoryIDs).Error; err != nil {
			return eris.Wrap(err, "loading post categories")
		}
	}
	if err := s.db.Model(p).Association("Categories").Replace(&cats); err != nil {
		s.logError(logrus.Fields{"id": p.ID}, err, "replacing post categories")
		return eris.Wrap(err, "replacing post categories")
	}
	p.Categories = cats
	return nil
}

// DeletePost removes a post, its category associations, and its links.
func (s *Store) DeletePost(id uint) error {
	post, err := s.PostByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(post).Association("Categories").Clear(); err != nil {
		return eris.Wrap(err, "detaching post categories")
	}
	if err := s.db.Delete(&PostLink{}, "post_id = ?", id).Error; err != nil {
		return eris.Wrap(err, "deleting post links")
	}
	if err := s.db.Delete(&Post{}, id).Error; err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting post")
		return eris.Wrap(err, "deleting post")
	}
	return nil
}

// CreatePostLink attaches an extra link to a post.
func (s *Store) CreatePostLink(l *PostLink) error {
	fields := map[string]string{}
	if strings.TrimSpace(l.Label) == "" {
		fields["label"] = "Label is required."
	}
	if strings.TrimSpace(l.URL) == "" {
		fields["url"] = "URL is required."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	if _, err := s.PostByID(l.PostID); err != nil {
		return err
	}
	if err := s.db.Create(l).Error; err != nil {
		s.logError(logrus.Fields{"post_id": l.PostID}, err, "creating post link")
		return eris.Wrap(err, "creating post link")
	}
	return nil
}

// DeletePostLink removes one link from a post.
func (s *Store) DeletePostLink(id uint) error {
	res := s.db.Delete(&PostLink{}, id)
	if res.Error != nil {
		return eris.Wrap(res.Error, "deleting post link")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DashboardStats collects the entity counts shown on the panel dashboard.
type DashboardStats struct {
	Posts        int64
	Published    int64
	Featured     int64
	Articles     int64
	Categories   int64
	Destinations int64
	Cities       int64
	RecentPosts  []Post
	PageHeroes   []PageHeroImage
	MiniVideo    *HomeMiniVideo
}

// Dashboard gathers counts, recent posts, page heroes, and the active mini
// video for the panel landing page.
func (s *Store) Dashboard() (DashboardStats, error) {
	var stats DashboardStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Posts, s.db.Model(&Post{})},
		{&stats.Published, s.db.Model(&Post{}).Where("is_published = ?", true)},
		{&stats.Featured, s.db.Model(&Post{}).Where("is_featured = ?", true)},
		{&stats.Articles, s.db.Model(&Post{}).Where("is_article = ?", true)},
		{&stats.Categories, s.db.Model(&Category{})},
		{&stats.Destinations, s.db.Model(&Destination{})},
		{&stats.Cities, s.db.Model(&City{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			s.logError(nil, err, "counting dashboard stats")
			return stats, eris.Wrap(err, "counting dashboard stats")
		}
	}
	if err := s.db.Order("created_at DESC").Limit(7).Find(&stats.RecentPosts).Error; err != nil {
		return stats, eris.Wrap(err, "listing recent posts")
	}
	heroes, err := s.PageHeroes()
	if err != nil {
		return stats, err
	}
	stats.PageHeroes = heroes
	video, err := s.ActiveMiniVideo()
	if err != nil {
		return stats, err
	}
	stats.MiniVideo = video
	return stats, nil
}

// --- Destinations ---

// ListDestinations returns every destination ordered by title.
func (s *Store) ListDestinations() ([]Destination, error) {
	var items []Destination
	if err := s.db.Order("title ASC").Find(&items).Error; err != nil {
		s.logError(nil, err, "listing destinations")
		return nil, eris.Wrap(err, "listing destinations")
	}
	return items, nil
}

// DestinationBySlug returns a destination with its cities and their media,
// or ErrNotFound.
func (s *Store) DestinationBySlug(slug string) (*Destination, error) {
	var item Destination
	err := s.db.Preload("Cities", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Preload("Cities.Media").First(&item, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DestinationByID returns a destination with its cities, or ErrNotFound.
func (s *Store) DestinationByID(id uint) (*Destination, error) {
	var item Destination
	err := s.db.Preload("Cities", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Preload("Cities.Media").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateDestination validates and persists a new destination.
func (s *Store) CreateDestination(d *Destination) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return newValidationError("title", "Title is required.")
	}
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
	slug, err := dedupeSlug(d.Slug, func(candidate string) (bool, error) {
		var n int64
		err := s.db.Model(&Destination{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return eris.Wrap(err, "deduplicating destination slug")
	}
	d.Slug = slug

	if err := s.db.Omit("Cities").Create(d).Error; err != nil {
		s.logError(logrus.Fields{"title": d.Title}, err, "creating destination")
		return eris.Wrap(err, "creating destination")
	}
	return nil
}

// UpdateDestination persists changes to a destination. The slug is immutable.
func (s *Store) UpdateDestination(d *Destination) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return newValidationError("title", "Title is required.")
	}
	if err := s.db.Omit("Cities").Save(d).Error; err != nil {
		s.logError(logrus.Fields{"id": d.ID}, err, "updating destination")
		return eris.Wrap(err, "updating destination")
	}
	return nil
}

// DeleteDestination removes a destination; its cities and their media are
// cascade-deleted by the schema.
func (s *Store) DeleteDestination(id uint) error {
	res := s.db.Delete(&Destination{}, id)
	if res.Error != nil {
		s.logError(logrus.Fields{"id": id}, res.Error, "deleting destination")
		return eris.Wrap(res.Error, "deleting destination")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Cities ---

// CityByID returns a city with its media, or ErrNotFound.
func (s *Store) CityByID(id uint) (*City, error) {
	var item City
	if err := s.db.Preload("Media").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCity validates and persists a city. The slug is deduplicated only
// within the parent destination.
func (s *Store) CreateCity(c *City) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return newValidationError("name", "Name is required.")
	}
	if _, err := s.DestinationByID(c.DestinationID); err != nil {
		return err
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	slug, err := dedupeSlug(c.Slug, func(candidate string) (bool, error) {
		var n int64
		err := s.db.Model(&City{}).
			Where("destination_id = ? AND slug = ?", c.DestinationID, candidate).
			Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return eris.Wrap(err, "deduplicating city slug")
	}
	c.Slug = slug

	if err := s.db.Omit("Media").Create(c).Error; err != nil {
		s.logError(logrus.Fields{"name": c.Name}, err, "creating city")
		return eris.Wrap(err, "creating city")
	}
	return nil
}

// UpdateCity persists changes to a city. Slug and destination are immutable.
func (s *Store) UpdateCity(c *City) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return newValidationError("name", "Name is required.")
	}
	if err := s.db.Omit("Media").Save(c).Error; err != nil {
		s.logError(logrus.Fields{"id": c.ID}, err, "updating city")
		return eris.Wrap(err, "updating city")
	}
	return nil
}

// DeleteCity removes a city; its media rows are cascade-deleted.
func (s *Store) DeleteCity(id uint) error {
	res := s.db.Delete(&City{}, id)
	if res.Error != nil {
		s.logError(logrus.Fields{"id": id}, res.Error, "deleting city")
		return eris.Wrap(res.Error, "deleting city")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCityMedia attaches an image or video to a city gallery.
func (s *Store) CreateCityMedia(m *CityMedia) error {
	if m.Image == "" && m.YoutubeURL == "" {
		return newValidationError("image", "Provide an image or a video URL.")
	}
	if _, err := s.CityByID(m.CityID); err != nil {
		return err
	}
	if err := s.db.Create(m).Error; err != nil {
		s.logError(logrus.Fields{"city_id": m.CityID}, err, "creating city media")
		return eris.Wrap(err, "creating city media")
	}
	return nil
}

// DeleteCityMedia removes one gallery entry.
func (s *Store) DeleteCityMedia(id uint) error {
	res := s.db.Delete(&CityMedia{}, id)
	if res.Error != nil {
		return eris.Wrap(res.Error, "deleting city media")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
