package wandercms

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// TimeStamped is the base embedded in every entity. Timestamps are filled by
// Gorm on insert and update.
type TimeStamped struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category groups posts and optionally appears in the site footer.
type Category struct {
	TimeStamped
	Name         string `gorm:"size:120;uniqueIndex;not null"`
	Slug         string `gorm:"size:140;uniqueIndex;not null"`
	IconClass    string `gorm:"size:80"`
	ShowInFooter bool
	Posts        []Post `gorm:"many2many:post_categories"`
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

// Post is the central content type: a travel story, video post, or article.
type Post struct {
	TimeStamped
	Title        string `gorm:"size:200;not null"`
	Slug         string `gorm:"size:220;uniqueIndex;not null"`
	Description  string `gorm:"type:text;not null"`
	Image        string `gorm:"size:500"`
	YoutubeURL   string `gorm:"size:500"`
	ExternalLink string `gorm:"size:500"`
	IsPublished  bool
	IsFeatured   bool
	IsArticle    bool
	PublishedAt  *time.Time
	Categories   []Category `gorm:"many2many:post_categories"`
	Links        []PostLink `gorm:"constraint:OnDelete:CASCADE"`
}

func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	return nil
}

// EstimatedReadMinutes estimates reading time from the description word count
// at roughly 200 words per minute, never less than one minute.
func (p Post) EstimatedReadMinutes() int {
	words := len(strings.Fields(p.Description))
	if words == 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(float64(words)/200)))
}

// PostLink is an extra outbound link attached to a post.
type PostLink struct {
	TimeStamped
	PostID uint   `gorm:"not null;index"`
	Label  string `gorm:"size:80;not null"`
	URL    string `gorm:"size:500;not null"`
}

// Destination is a travel destination with its own hero media and cities.
type Destination struct {
	TimeStamped
	Title       string `gorm:"size:160;not null"`
	Slug        string `gorm:"size:180;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	HeroImage   string `gorm:"size:500"`
	MiniVideo   string `gorm:"size:500"`
	Cities      []City `gorm:"constraint:OnDelete:CASCADE"`
}

func (d *Destination) BeforeSave(tx *gorm.DB) error {
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
	return nil
}

// City belongs to a destination. Its slug is only unique within the destination.
type City struct {
	TimeStamped
	DestinationID uint       `gorm:"not null;uniqueIndex:idx_cities_destination_slug"`
	Name          string     `gorm:"size:140;not null"`
	Slug          string     `gorm:"size:160;uniqueIndex:idx_cities_destination_slug;not null"`
	Description   string     `gorm:"type:text"`
	Media         []CityMedia `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *City) BeforeSave(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

// CityMedia is an image or video attached to a city gallery.
type CityMedia struct {
	TimeStamped
	CityID     uint   `gorm:"not null;index"`
	Image      string `gorm:"size:500"`
	YoutubeURL string `gorm:"size:500"`
}

// HeroImage is a slide in the home page hero slider.
type HeroImage struct {
	TimeStamped
	Image     string `gorm:"size:500;not null"`
	Caption   string `gorm:"size:180"`
	IsActive  bool
	SortOrder int    `gorm:"not null;default:0"`
}

// PageKind identifies which public page a PageHeroImage belongs to.
type PageKind string

const (
	PageCategories  PageKind = "categories"
	PageDestination PageKind = "destination"
	PageAbout       PageKind = "about"
	PageContact     PageKind = "contact"
)

// PageKinds lists every valid page identifier in display order.
var PageKinds = []PageKind{PageCategories, PageDestination, PageAbout, PageContact}

// Valid reports whether the identifier is one of the fixed page choices.
func (k PageKind) Valid() bool {
	switch k {
	case PageCategories, PageDestination, PageAbout, PageContact:
		return true
	}
	return false
}

// DisplayName returns the human-readable page label.
func (k PageKind) DisplayName() string {
	switch k {
	case PageCategories:
		return "Categories Page"
	case PageDestination:
		return "Destination Page"
	case PageAbout:
		return "About Page"
	case PageContact:
		return "Contact Page"
	}
	return string(k)
}

// PageHeroImage is the banner for one fixed public page. The unique index on
// Page enforces at most one record per page identifier; the store layer adds a
// friendly existence check on top of it.
type PageHeroImage struct {
	TimeStamped
	Page     PageKind `gorm:"size:20;uniqueIndex;not null"`
	Image    string   `gorm:"size:500"`
	Title    string   `gorm:"size:200"`
	Subtitle string   `gorm:"size:300"`
	IsActive bool
}

// HomeMiniVideo is the promotional clip on the home page. Exactly one of
// VideoFile and YoutubeURL must be set; the store rejects anything else.
type HomeMiniVideo struct {
	TimeStamped
	VideoFile  string `gorm:"size:500"`
	YoutubeURL string `gorm:"size:500"`
	IsActive   bool
	Autoplay   bool
	Muted      bool
}

// User is a panel principal. Only active staff users pass the admin gate.
type User struct {
	TimeStamped
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsStaff      bool
	IsActive     bool
}

// allModels is the AutoMigrate set, parents before children.
func allModels() []any {
	return []any{
		&Category{},
		&Post{},
		&PostLink{},
		&Destination{},
		&City{},
		&CityMedia{},
		&HeroImage{},
		&PageHeroImage{},
		&HomeMiniVideo{},
		&User{},
	}
}
