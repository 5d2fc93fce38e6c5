package wandercms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps a Gorm SQLite database and provides validated CRUD operations
// for every content entity.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, enforces pragmas, and runs schema migrations.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "creating database directory")
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, eris.Wrap(err, "opening sqlite database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "retrieving sql.DB from gorm")
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(4)

	// Cascade deletes for PostLink, City, and CityMedia rely on this pragma.
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, eris.Wrap(err, "enabling foreign keys pragma")
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, eris.Wrap(err, "auto migrating schema")
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return eris.Wrap(err, "retrieving sql.DB for close")
	}
	return sqlDB.Close()
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil {
		return
	}
	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// dedupeSlug appends a counter until taken reports the candidate as free, the
// same scheme used for upload filenames.
func dedupeSlug(base string, taken func(slug string) (bool, error)) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// --- Categories ---

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	var items []Category
	if err := s.db.Order("name ASC").Find(&items).Error; err != nil {
		s.logError(nil, err, "listing categories")
		return nil, eris.Wrap(err, "listing categories")
	}
	return items, nil
}

// FooterCategories returns the categories flagged for the site footer.
func (s *Store) FooterCategories() ([]Category, error) {
	var items []Category
	if err := s.db.Where("show_in_footer = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		s.logError(nil, err, "listing footer categories")
		return nil, eris.Wrap(err, "listing footer categories")
	}
	return items, nil
}

// CategoryByID returns a category or ErrNotFound.
func (s *Store) CategoryByID(id uint) (*Category, error) {
	var item Category
	if err := s.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CategoryBySlug returns a category or ErrNotFound.
func (s *Store) CategoryBySlug(slug string) (*Category, error) {
	var item Category
	if err := s.db.First(&item, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCategory validates and persists a new category, deriving and
// disambiguating the slug when it is blank.
func (s *Store) CreateCategory(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return newValidationError("name", "Name is required.")
	}

	var count int64
	if err := s.db.Model(&Category{}).Where("name = ?", c.Name).Count(&count).Error; err != nil {
		return eris.Wrap(err, "checking category name")
	}
	if count > 0 {
		return newValidationError("name", "A category with this name already exists.")
	}

	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	slug, err := dedupeSlug(c.Slug, func(candidate string) (bool, error) {
		var n int64
		err := s.db.Model(&Category{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return eris.Wrap(err, "deduplicating category slug")
	}
	c.Slug = slug

	if err := s.db.Create(c).Error; err != nil {
		s.logError(logrus.Fields{"name": c.Name}, err, "creating category")
		return eris.Wrap(err, "creating category")
	}
	return nil
}

// UpdateCategory persists changes to an existing category. The slug is an
// identity field and is never changed here.
func (s *Store) UpdateCategory(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return newValidationError("name", "Name is required.")
	}

	var count int64
	if err := s.db.Model(&Category{}).Where("name = ? AND id <> ?", c.Name, c.ID).Count(&count).Error; err != nil {
		return eris.Wrap(err, "checking category name")
	}
	if count > 0 {
		return newValidationError("name", "A category with this name already exists.")
	}

	if err := s.db.Save(c).Error; err != nil {
		s.logError(logrus.Fields{"id": c.ID}, err, "updating category")
		return eris.Wrap(err, "updating category")
	}
	return nil
}

// DeleteCategory removes a category, detaching post associations. Posts
// themselves are never deleted.
func (s *Store) DeleteCategory(id uint) error {
	item, err := s.CategoryByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(item).Association("Posts").Clear(); err != nil {
		s.logError(logrus.Fields{"id": id}, err, "detaching category posts")
		return eris.Wrap(err, "detaching category posts")
	}
	if err := s.db.Delete(&Category{}, id).Error; err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting category")
		return eris.Wrap(err, "deleting category")
	}
	return nil
}

// --- Users ---

// UserByUsername returns the user or ErrNotFound.
func (s *Store) UserByUsername(username string) (*User, error) {
	var u User
	if err := s.db.First(&u, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID returns the user or ErrNotFound.
func (s *Store) UserByID(id uint) (*User, error) {
	var u User
	if err := s.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser provisions a panel principal with a bcrypt-hashed password.
func (s *Store) CreateUser(username, password string, staff bool) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newValidationError("username", "Username is required.")
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, eris.Wrap(err, "checking username")
	}
	if count > 0 {
		return nil, newValidationError("username", "A user with this username already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, eris.Wrap(err, "hashing password")
	}
	u := &User{Username: username, PasswordHash: string(hash), IsStaff: staff, IsActive: true}
	if err := s.db.Create(u).Error; err != nil {
		s.logError(logrus.Fields{"username": username}, err, "creating user")
		return nil, eris.Wrap(err, "creating user")
	}
	return u, nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UpdatePassword replaces the user's credential. The caller's session stays
// valid; nothing here touches session state.
func (s *Store) UpdatePassword(userID uint, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return eris.Wrap(err, "hashing password")
	}
	res := s.db.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"password_hash": string(hash),
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		s.logError(logrus.Fields{"id": userID}, res.Error, "updating password")
		return eris.Wrap(res.Error, "updating password")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidatePasswordStrength enforces the panel password policy: at least eight
// characters containing both a letter and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return newValidationError("new_password", "Password must be at least 8 characters long.")
	}
	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return newValidationError("new_password", "Password must contain both letters and digits.")
	}
	return nil
}
