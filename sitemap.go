package wandercms

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// handleSitemap lists the static pages, published posts, categories, and
// destinations.
func (a *App) handleSitemap(c echo.Context) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "about")},
		{Loc: BuildURL(base, "contact")},
		{Loc: BuildURL(base, "categories")},
		{Loc: BuildURL(base, "destination")},
		{Loc: BuildURL(base, "blogs")},
		{Loc: BuildURL(base, "featured")},
		{Loc: BuildURL(base, "articles")},
	}

	posts, err := a.Store.PublishedPosts(PostFilter{})
	if err != nil {
		return err
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.UpdatedAt.Format(time.RFC3339),
		})
	}

	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	for _, cat := range categories {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "category", cat.Slug)})
	}

	destinations, err := a.Store.ListDestinations()
	if err != nil {
		return err
	}
	for _, d := range destinations {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "destination", d.Slug)})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
