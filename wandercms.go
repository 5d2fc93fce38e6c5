// Package wandercms is a content engine for travel and blog sites built with
// Go, Echo, templ, and Gorm. It provides the public site surface (posts,
// categories, destinations, hero sliders, contact form, RSS, sitemap) and a
// staff panel with session auth, uploads, and CRUD for every content type.
//
// Users provide their own templ templates via the ViewFuncs struct, and
// wandercms handles all the handler logic, middleware, and database
// operations.
package wandercms

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets users
// own and customize all templates.
type ViewFuncs struct {
	// Public pages. Every func receives the shared PageContext first.
	Home              func(ctx PageContext, data HomeData) templ.Component
	PostList          func(ctx PageContext, data PostListData) templ.Component
	PostDetail        func(ctx PageContext, post Post, related []Post) templ.Component
	Categories        func(ctx PageContext, hero *PageHeroImage, categories []Category) templ.Component
	Destinations      func(ctx PageContext, hero *PageHeroImage, destinations []Destination) templ.Component
	DestinationDetail func(ctx PageContext, destination Destination) templ.Component
	About             func(ctx PageContext, hero *PageHeroImage) templ.Component
	Contact           func(ctx PageContext, data ContactData) templ.Component
	PrivacyPolicy     func(ctx PageContext) templ.Component
	Terms             func(ctx PageContext) templ.Component
	NotFound          func(ctx PageContext) templ.Component
	ServerError       func(ctx PageContext) templ.Component

	// Staff panel pages.
	PanelLogin           func(showError bool, csrfToken string) templ.Component
	PanelDashboard       func(stats DashboardStats, flash Flash, csrfToken string) templ.Component
	PanelCategories      func(items []Category, errs map[string]string, flash Flash, csrfToken string) templ.Component
	PanelCategoryEdit    func(item Category, errs map[string]string, csrfToken string) templ.Component
	PanelPosts           func(items []Post, query string, flash Flash, csrfToken string) templ.Component
	PanelPostForm        func(item *Post, categories []Category, errs map[string]string, csrfToken string) templ.Component
	PanelDestinations    func(items []Destination, errs map[string]string, flash Flash, csrfToken string) templ.Component
	PanelDestinationEdit func(item Destination, errs map[string]string, csrfToken string) templ.Component
	PanelHeroes          func(items []HeroImage, errs map[string]string, flash Flash, csrfToken string) templ.Component
	PanelPageHeroes      func(items []PageHeroImage, pages []PageKind, flash Flash, csrfToken string) templ.Component
	PanelPageHeroEdit    func(item PageHeroImage, errs map[string]string, pages []PageKind, csrfToken string) templ.Component
	PanelMiniVideos      func(items []HomeMiniVideo, errs map[string]string, flash Flash, csrfToken string) templ.Component
	PanelMiniVideoEdit   func(item HomeMiniVideo, errs map[string]string, csrfToken string) templ.Component
	PanelPasswordChange  func(errs map[string]string, csrfToken string) templ.Component
}

// App is the central wandercms application. It wires together the store,
// media storage, mailer, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Logger *logrus.Logger
	Views  ViewFuncs

	loginLimiter *LoginLimiter
	media        *MediaStore
	mailer       Mailer
	customRoutes []func(*App)
}

// New creates a wandercms App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, media storage, middleware, and routes, and
// starts the server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init performs everything Start does short of listening. Split out so tests
// and CLI subcommands can run against a fully wired app without a server.
func (a *App) init() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("wandercms: SessionSecret is required")
	}

	if a.Logger == nil {
		a.Logger = NewLogger(a.Config.LogLevel)
	}

	store, err := NewStore(a.Config.DatabasePath, a.Logger)
	if err != nil {
		return fmt.Errorf("wandercms: init store: %w", err)
	}
	a.Store = store

	media, err := NewMediaStore(a.Config.MediaRoot, a.Logger)
	if err != nil {
		return fmt.Errorf("wandercms: init media store: %w", err)
	}
	a.media = media

	if a.mailer == nil {
		a.mailer = NewSMTPMailer(a.Config)
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Static trees: user assets and uploaded media.
	e.Static("/public", a.Config.StaticDir)
	e.Static("/media", a.media.Root())
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public site.
	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/contact/", a.handleContactForm)
	e.POST("/contact/", a.handleContactSubmit)
	e.GET("/categories/", a.handleCategories)
	e.GET("/destination/", a.handleDestinations)
	e.GET("/destination/:slug/", a.handleDestinationDetail)
	e.GET("/blogs/", a.handlePosts)
	e.GET("/blog/:slug/", a.handlePostDetail)
	e.GET("/category/:slug/", a.handlePostsByCategory)
	e.GET("/featured/", a.handleFeatured)
	e.GET("/articles/", a.handleArticles)
	e.GET("/privacy-policy/", a.handlePrivacyPolicy)
	e.GET("/terms/", a.handleTerms)

	// Panel entry points outside the staff gate.
	e.GET("/panel/", a.handlePanelRoot)
	e.GET("/panel/login/", a.handleLoginForm)
	e.POST("/panel/login/", a.handleLogin)
	e.POST("/panel/logout/", a.handleLogout)
	e.GET("/panel/logout/", a.handleLogout)

	// Staff panel.
	panel := e.Group("/panel", a.requireStaff)
	panel.GET("/dashboard/", a.handleDashboard)

	panel.GET("/categories/", a.handleCategoryList)
	panel.POST("/categories/create/", a.handleCategoryCreate)
	panel.GET("/categories/:id/edit/", a.handleCategoryEdit)
	panel.POST("/categories/:id/edit/", a.handleCategoryUpdate)
	panel.POST("/categories/:id/delete/", a.handleCategoryDelete)

	panel.GET("/posts/", a.handlePostList)
	panel.GET("/posts/create/", a.handlePostCreateForm)
	panel.POST("/posts/create/", a.handlePostCreate)
	panel.GET("/posts/:id/edit/", a.handlePostEdit)
	panel.POST("/posts/:id/edit/", a.handlePostUpdate)
	panel.POST("/posts/:id/delete/", a.handlePostDelete)
	panel.POST("/posts/:id/links/create/", a.handlePostLinkCreate)
	panel.POST("/links/:id/delete/", a.handlePostLinkDelete)

	panel.GET("/destinations/", a.handleDestinationList)
	panel.POST("/destinations/create/", a.handleDestinationCreate)
	panel.GET("/destinations/:id/edit/", a.handleDestinationEdit)
	panel.POST("/destinations/:id/edit/", a.handleDestinationUpdate)
	panel.POST("/destinations/:id/delete/", a.handleDestinationDelete)
	panel.POST("/destinations/:id/cities/create/", a.handleCityCreate)
	panel.POST("/cities/:id/edit/", a.handleCityUpdate)
	panel.POST("/cities/:id/delete/", a.handleCityDelete)
	panel.POST("/cities/:id/media/create/", a.handleCityMediaCreate)
	panel.POST("/city-media/:id/delete/", a.handleCityMediaDelete)

	panel.GET("/hero/", a.handleHeroList)
	panel.POST("/hero/create/", a.handleHeroCreate)
	panel.POST("/hero/:id/toggle/", a.handleHeroToggle)
	panel.POST("/hero/:id/delete/", a.handleHeroDelete)

	panel.GET("/page-hero/", a.handlePageHeroList)
	panel.POST("/page-hero/create/", a.handlePageHeroCreate)
	panel.GET("/page-hero/:id/edit/", a.handlePageHeroEdit)
	panel.POST("/page-hero/:id/edit/", a.handlePageHeroUpdate)
	panel.POST("/page-hero/:id/delete/", a.handlePageHeroDelete)

	panel.GET("/home-mini-video/", a.handleMiniVideoList)
	panel.POST("/home-mini-video/create/", a.handleMiniVideoCreate)
	panel.GET("/home-mini-video/:id/edit/", a.handleMiniVideoEdit)
	panel.POST("/home-mini-video/:id/edit/", a.handleMiniVideoUpdate)
	panel.POST("/home-mini-video/:id/delete/", a.handleMiniVideoDelete)

	panel.GET("/password/change/", a.handlePasswordChangeForm)
	panel.POST("/password/change/", a.handlePasswordChange)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
