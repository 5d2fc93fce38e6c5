package wandercms

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
)

// PageContext carries the data every public page needs: site identity for
// meta tags and the footer category links.
type PageContext struct {
	Site             SiteConfig
	FooterCategories []Category
}

func (a *App) pageContext() PageContext {
	footer, err := a.Store.FooterCategories()
	if err != nil {
		footer = nil
	}
	return PageContext{Site: a.Config, FooterCategories: footer}
}

// HomeData is everything the home page renders.
type HomeData struct {
	HeroImages       []HeroImage
	Categories       []Category
	SelectedCategory *Category
	PostsSample      []Post
	FeaturedPosts    []Post
	ArticlePosts     []Post
	Query            string
	MiniVideo        *HomeMiniVideo
}

// PostListData backs the shared post listing page. Exactly one of Category
// and Title is set for the filtered variants; both are empty on /blogs/.
type PostListData struct {
	Page     PostPage
	Query    string
	Category *Category
	Title    string
}

// ContactData backs the contact page, round-tripping entered values on error.
type ContactData struct {
	Hero     *PageHeroImage
	Form     ContactMessage
	Errors   map[string]string
	Success  bool
	SendFail bool
	Csrf     string
}

func pageNumber(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (a *App) handleHome(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	categorySlug := c.QueryParam("category")

	filter := PostFilter{Query: query}
	var selected *Category
	if categorySlug != "" {
		cat, err := a.Store.CategoryBySlug(categorySlug)
		if err != nil {
			if eris.Is(err, ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound)
			}
			return err
		}
		selected = cat
		filter.CategoryID = cat.ID
	}

	sample, err := a.Store.PublishedPosts(filter.withLimit(PublicPageSize))
	if err != nil {
		return err
	}
	featured, err := a.Store.PublishedPosts(filter.featured().withLimit(HomeRailSize))
	if err != nil {
		return err
	}
	articles, err := a.Store.PublishedPosts(filter.articles().withLimit(HomeRailSize))
	if err != nil {
		return err
	}

	heroes, err := a.Store.HeroImages(true)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	miniVideo, err := a.Store.ActiveMiniVideo()
	if err != nil {
		return err
	}

	return Render(c, a.Views.Home(a.pageContext(), HomeData{
		HeroImages:       heroes,
		Categories:       categories,
		SelectedCategory: selected,
		PostsSample:      sample,
		FeaturedPosts:    featured,
		ArticlePosts:     articles,
		Query:            query,
		MiniVideo:        miniVideo,
	}))
}

func (a *App) handlePosts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	page, err := a.Store.PublishedPostPage(PostFilter{Query: query}, pageNumber(c))
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(a.pageContext(), PostListData{Page: page, Query: query}))
}

func (a *App) handlePostsByCategory(c echo.Context) error {
	cat, err := a.Store.CategoryBySlug(c.Param("slug"))
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	page, err := a.Store.PublishedPostPage(PostFilter{CategoryID: cat.ID}, pageNumber(c))
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(a.pageContext(), PostListData{Page: page, Category: cat}))
}

func (a *App) handleFeatured(c echo.Context) error {
	page, err := a.Store.PublishedPostPage(PostFilter{Featured: true}, pageNumber(c))
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(a.pageContext(), PostListData{Page: page, Title: "Featured Posts"}))
}

func (a *App) handleArticles(c echo.Context) error {
	page, err := a.Store.PublishedPostPage(PostFilter{Articles: true}, pageNumber(c))
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(a.pageContext(), PostListData{Page: page, Title: "Latest Articles"}))
}

// handlePostDetail serves a published post by slug. Drafts are
// indistinguishable from missing posts.
func (a *App) handlePostDetail(c echo.Context) error {
	post, err := a.Store.PostBySlug(c.Param("slug"), true)
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	recent, err := a.Store.PublishedPosts(PostFilter{Limit: 50})
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostDetail(a.pageContext(), *post, RelatedPosts(*post, recent)))
}

func (a *App) handleCategories(c echo.Context) error {
	hero, err := a.Store.ActivePageHero(PageCategories)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Categories(a.pageContext(), hero, categories))
}

func (a *App) handleDestinations(c echo.Context) error {
	hero, err := a.Store.ActivePageHero(PageDestination)
	if err != nil {
		return err
	}
	items, err := a.Store.ListDestinations()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Destinations(a.pageContext(), hero, items))
}

func (a *App) handleDestinationDetail(c echo.Context) error {
	dest, err := a.Store.DestinationBySlug(c.Param("slug"))
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.DestinationDetail(a.pageContext(), *dest))
}

func (a *App) handleAbout(c echo.Context) error {
	hero, err := a.Store.ActivePageHero(PageAbout)
	if err != nil {
		return err
	}
	return Render(c, a.Views.About(a.pageContext(), hero))
}

func (a *App) handleContactForm(c echo.Context) error {
	hero, err := a.Store.ActivePageHero(PageContact)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Contact(a.pageContext(), ContactData{Hero: hero, Csrf: CsrfToken(c)}))
}

// handleContactSubmit validates the submission and mails it. A delivery
// failure re-renders the form with the entered values so nothing is lost.
func (a *App) handleContactSubmit(c echo.Context) error {
	hero, err := a.Store.ActivePageHero(PageContact)
	if err != nil {
		return err
	}

	msg := ContactMessage{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Subject: strings.TrimSpace(c.FormValue("subject")),
		Body:    strings.TrimSpace(c.FormValue("message")),
	}
	data := ContactData{Hero: hero, Form: msg, Csrf: CsrfToken(c)}

	if err := msg.Validate(); err != nil {
		if v := AsValidation(err); v != nil {
			data.Errors = v.Fields
			return Render(c, a.Views.Contact(a.pageContext(), data))
		}
		return err
	}

	if err := a.mailer.SendContact(msg); err != nil {
		a.Logger.WithField("error", err.Error()).Error("contact mail delivery failed")
		data.SendFail = true
		return Render(c, a.Views.Contact(a.pageContext(), data))
	}

	data.Success = true
	data.Form = ContactMessage{}
	return Render(c, a.Views.Contact(a.pageContext(), data))
}

func (a *App) handlePrivacyPolicy(c echo.Context) error {
	return Render(c, a.Views.PrivacyPolicy(a.pageContext()))
}

func (a *App) handleTerms(c echo.Context) error {
	return Render(c, a.Views.Terms(a.pageContext()))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.Config.StaticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nDisallow: /panel/\nSitemap: "+a.Config.URL+"/sitemap.xml\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.pageContext()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.WithField("error", err.Error()).WithField("uri", c.Request().RequestURI).Error("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.pageContext()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
