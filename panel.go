package wandercms

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
)

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return uint(id), nil
}

// formChecked reads a checkbox field. Browsers omit unchecked boxes entirely.
func formChecked(c echo.Context, field string) bool {
	return c.FormValue(field) != ""
}

// notFoundOr maps ErrNotFound to a 404 and passes everything else through.
func notFoundOr(err error) error {
	if eris.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return err
}

func (a *App) handleDashboard(c echo.Context) error {
	stats, err := a.Store.Dashboard()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelDashboard(stats, popFlash(c), CsrfToken(c)))
}

// --- Categories ---

func (a *App) renderCategoryList(c echo.Context, errs map[string]string) error {
	items, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelCategories(items, errs, popFlash(c), CsrfToken(c)))
}

func (a *App) handleCategoryList(c echo.Context) error {
	return a.renderCategoryList(c, nil)
}

func (a *App) handleCategoryCreate(c echo.Context) error {
	item := &Category{
		Name:         c.FormValue("name"),
		IconClass:    strings.TrimSpace(c.FormValue("icon_class")),
		ShowInFooter: formChecked(c, "show_in_footer"),
	}
	if err := a.Store.CreateCategory(item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderCategoryList(c, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/categories/")
}

func (a *App) handleCategoryEdit(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.CategoryByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return Render(c, a.Views.PanelCategoryEdit(*item, nil, CsrfToken(c)))
}

func (a *App) handleCategoryUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.CategoryByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	item.Name = c.FormValue("name")
	item.IconClass = strings.TrimSpace(c.FormValue("icon_class"))
	item.ShowInFooter = formChecked(c, "show_in_footer")
	if err := a.Store.UpdateCategory(item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelCategoryEdit(*item, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/categories/")
}

func (a *App) handleCategoryDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteCategory(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/categories/")
}

// --- Posts ---

func (a *App) handlePostList(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	items, err := a.Store.AdminPosts(query)
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelPosts(items, query, popFlash(c), CsrfToken(c)))
}

func (a *App) renderPostForm(c echo.Context, item *Post, errs map[string]string) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelPostForm(item, categories, errs, CsrfToken(c)))
}

func (a *App) handlePostCreateForm(c echo.Context) error {
	return a.renderPostForm(c, nil, nil)
}

// postFromForm fills item from the submitted fields, handling the optional
// image upload and the published-at stamp.
func (a *App) postFromForm(c echo.Context, item *Post) error {
	item.Title = c.FormValue("title")
	item.Description = c.FormValue("description")
	item.YoutubeURL = strings.TrimSpace(c.FormValue("youtube_url"))
	item.ExternalLink = strings.TrimSpace(c.FormValue("external_link"))
	item.IsFeatured = formChecked(c, "is_featured")
	item.IsArticle = formChecked(c, "is_article")

	wasPublished := item.IsPublished
	item.IsPublished = formChecked(c, "is_published")
	if item.IsPublished && !wasPublished && item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}

	webPath, err := a.formImage(c, "image", MediaPosts)
	if err != nil {
		return err
	}
	if webPath != "" {
		item.Image = webPath
	}
	return nil
}

func formCategoryIDs(c echo.Context) []uint {
	values, _ := c.FormParams()
	var ids []uint
	for _, raw := range values["categories"] {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

func (a *App) handlePostCreate(c echo.Context) error {
	item := &Post{}
	if err := a.postFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderPostForm(c, item, v.Fields)
		}
		return err
	}
	if err := a.Store.CreatePost(item, formCategoryIDs(c)); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderPostForm(c, item, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/posts/")
}

func (a *App) handlePostEdit(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.PostByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return a.renderPostForm(c, item, nil)
}

func (a *App) handlePostUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.PostByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := a.postFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderPostForm(c, item, v.Fields)
		}
		return err
	}
	if err := a.Store.UpdatePost(item, formCategoryIDs(c)); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderPostForm(c, item, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/posts/")
}

func (a *App) handlePostDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePost(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/posts/")
}

func (a *App) handlePostLinkCreate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	post, err := a.Store.PostByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	link := &PostLink{
		PostID: post.ID,
		Label:  strings.TrimSpace(c.FormValue("label")),
		URL:    strings.TrimSpace(c.FormValue("url")),
	}
	if err := a.Store.CreatePostLink(link); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderPostForm(c, post, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/edit/")
}

func (a *App) handlePostLinkDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePostLink(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/posts/")
}

// --- Destinations ---

func (a *App) renderDestinationList(c echo.Context, errs map[string]string) error {
	items, err := a.Store.ListDestinations()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelDestinations(items, errs, popFlash(c), CsrfToken(c)))
}

func (a *App) handleDestinationList(c echo.Context) error {
	return a.renderDestinationList(c, nil)
}

func (a *App) destinationFromForm(c echo.Context, item *Destination) error {
	item.Title = c.FormValue("title")
	item.Description = c.FormValue("description")

	hero, err := a.formImage(c, "hero_image", MediaDestinations)
	if err != nil {
		return err
	}
	if hero != "" {
		item.HeroImage = hero
	}
	video, err := a.formVideo(c, "mini_video", MediaDestinationVideo)
	if err != nil {
		return err
	}
	if video != "" {
		item.MiniVideo = video
	}
	return nil
}

func (a *App) handleDestinationCreate(c echo.Context) error {
	item := &Destination{}
	if err := a.destinationFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderDestinationList(c, v.Fields)
		}
		return err
	}
	if err := a.Store.CreateDestination(item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderDestinationList(c, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/destinations/")
}

func (a *App) handleDestinationEdit(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.DestinationByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return Render(c, a.Views.PanelDestinationEdit(*item, nil, CsrfToken(c)))
}

func (a *App) handleDestinationUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.DestinationByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := a.destinationFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelDestinationEdit(*item, v.Fields, CsrfToken(c)))
		}
		return err
	}
	if err := a.Store.UpdateDestination(item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelDestinationEdit(*item, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/destinations/")
}

func (a *App) handleDestinationDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteDestination(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/destinations/")
}

// --- Cities ---

func destinationEditPath(destID uint) string {
	return "/panel/destinations/" + strconv.FormatUint(uint64(destID), 10) + "/edit/"
}

func (a *App) handleCityCreate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	dest, err := a.Store.DestinationByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	item := &City{
		DestinationID: dest.ID,
		Name:          c.FormValue("name"),
		Description:   c.FormValue("description"),
	}
	if err := a.Store.CreateCity(item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelDestinationEdit(*dest, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, destinationEditPath(dest.ID))
}

func (a *App) handleCityUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.CityByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	item.Name = c.FormValue("name")
	item.Description = c.FormValue("description")
	if err := a.Store.UpdateCity(item); err != nil {
		if v := AsValidation(err); v != nil {
			dest, derr := a.Store.DestinationByID(item.DestinationID)
			if derr != nil {
				return derr
			}
			return Render(c, a.Views.PanelDestinationEdit(*dest, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, destinationEditPath(item.DestinationID))
}

func (a *App) handleCityDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.CityByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := a.Store.DeleteCity(item.ID); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, destinationEditPath(item.DestinationID))
}

func (a *App) handleCityMediaCreate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	city, err := a.Store.CityByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	image, err := a.formImage(c, "image", MediaCities)
	if err != nil {
		if v := AsValidation(err); v != nil {
			dest, derr := a.Store.DestinationByID(city.DestinationID)
			if derr != nil {
				return derr
			}
			return Render(c, a.Views.PanelDestinationEdit(*dest, v.Fields, CsrfToken(c)))
		}
		return err
	}
	item := &CityMedia{
		CityID:     city.ID,
		Image:      image,
		YoutubeURL: strings.TrimSpace(c.FormValue("youtube_url")),
	}
	if err := a.Store.CreateCityMedia(item); err != nil {
		if v := AsValidation(err); v != nil {
			dest, derr := a.Store.DestinationByID(city.DestinationID)
			if derr != nil {
				return derr
			}
			return Render(c, a.Views.PanelDestinationEdit(*dest, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, destinationEditPath(city.DestinationID))
}

func (a *App) handleCityMediaDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteCityMedia(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/destinations/")
}
