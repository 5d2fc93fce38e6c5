package wandercms

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// --- Hero images ---

func (a *App) renderHeroList(c echo.Context, errs map[string]string) error {
	items, err := a.Store.HeroImages(false)
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelHeroes(items, errs, popFlash(c), CsrfToken(c)))
}

func (a *App) handleHeroList(c echo.Context) error {
	return a.renderHeroList(c, nil)
}

func (a *App) handleHeroCreate(c echo.Context) error {
	image, err := a.formImage(c, "image", MediaHero)
	if err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderHeroList(c, v.Fields)
		}
		return err
	}
	count, err := a.Store.CountHeroImages()
	if err != nil {
		return err
	}
	item := &HeroImage{
		Image:     image,
		Caption:   c.FormValue("caption"),
		IsActive:  formChecked(c, "is_active"),
		SortOrder: int(count),
	}
	if err := a.Store.CreateHeroImage(item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderHeroList(c, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/hero/")
}

func (a *App) handleHeroToggle(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if _, err := a.Store.ToggleHeroImage(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/hero/")
}

func (a *App) handleHeroDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteHeroImage(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/hero/")
}

// --- Page heroes ---

func (a *App) handlePageHeroList(c echo.Context) error {
	items, err := a.Store.PageHeroes()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelPageHeroes(items, PageKinds, popFlash(c), CsrfToken(c)))
}

// handlePageHeroCreate runs the redirect-with-flash flow: the list page shows
// the outcome banner after either result.
func (a *App) handlePageHeroCreate(c echo.Context) error {
	image, err := a.formImage(c, "image", MediaPageHero)
	if err != nil {
		if v := AsValidation(err); v != nil {
			if ferr := setFlash(c, Flash{Error: firstFieldError(v)}); ferr != nil {
				return ferr
			}
			return c.Redirect(http.StatusSeeOther, "/panel/page-hero/")
		}
		return err
	}
	item := &PageHeroImage{
		Page:     PageKind(c.FormValue("page")),
		Image:    image,
		Title:    c.FormValue("title"),
		Subtitle: c.FormValue("subtitle"),
		IsActive: formChecked(c, "is_active"),
	}
	if err := a.Store.CreatePageHero(item); err != nil {
		if v := AsValidation(err); v != nil {
			if ferr := setFlash(c, Flash{Error: firstFieldError(v)}); ferr != nil {
				return ferr
			}
			return c.Redirect(http.StatusSeeOther, "/panel/page-hero/")
		}
		return err
	}
	if err := setFlash(c, Flash{Success: "Page hero for " + item.Page.DisplayName() + " created successfully."}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/page-hero/")
}

func (a *App) handlePageHeroEdit(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.PageHeroByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return Render(c, a.Views.PanelPageHeroEdit(*item, nil, PageKinds, CsrfToken(c)))
}

func (a *App) handlePageHeroUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.PageHeroByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	item.Page = PageKind(c.FormValue("page"))
	item.Title = c.FormValue("title")
	item.Subtitle = c.FormValue("subtitle")
	item.IsActive = formChecked(c, "is_active")

	image, err := a.formImage(c, "image", MediaPageHero)
	if err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelPageHeroEdit(*item, v.Fields, PageKinds, CsrfToken(c)))
		}
		return err
	}
	if image != "" {
		item.Image = image
	}

	if err := a.Store.UpdatePageHero(item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelPageHeroEdit(*item, v.Fields, PageKinds, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/page-hero/")
}

func (a *App) handlePageHeroDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePageHero(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/page-hero/")
}

// firstFieldError picks one message for a single-banner surface.
func firstFieldError(v *ValidationError) string {
	for _, msg := range v.Fields {
		return msg
	}
	return "Please correct the errors below."
}

// --- Home mini videos ---

func (a *App) renderMiniVideoList(c echo.Context, errs map[string]string) error {
	items, err := a.Store.MiniVideos()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PanelMiniVideos(items, errs, popFlash(c), CsrfToken(c)))
}

func (a *App) handleMiniVideoList(c echo.Context) error {
	return a.renderMiniVideoList(c, nil)
}

func (a *App) miniVideoFromForm(c echo.Context, item *HomeMiniVideo) error {
	item.YoutubeURL = c.FormValue("youtube_url")
	item.IsActive = formChecked(c, "is_active")
	item.Autoplay = formChecked(c, "autoplay")
	item.Muted = formChecked(c, "muted")

	video, err := a.formVideo(c, "video_file", MediaHomeVideo)
	if err != nil {
		return err
	}
	if video != "" {
		item.VideoFile = video
	}
	return nil
}

func (a *App) handleMiniVideoCreate(c echo.Context) error {
	item := &HomeMiniVideo{}
	if err := a.miniVideoFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderMiniVideoList(c, v.Fields)
		}
		return err
	}
	if err := a.Store.CreateMiniVideo(item); err != nil {
		if v := AsValidation(err); v != nil {
			return a.renderMiniVideoList(c, v.Fields)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/home-mini-video/")
}

func (a *App) handleMiniVideoEdit(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.MiniVideoByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return Render(c, a.Views.PanelMiniVideoEdit(*item, nil, CsrfToken(c)))
}

func (a *App) handleMiniVideoUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := a.Store.MiniVideoByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := a.miniVideoFromForm(c, item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelMiniVideoEdit(*item, v.Fields, CsrfToken(c)))
		}
		return err
	}
	if err := a.Store.UpdateMiniVideo(item); err != nil {
		if v := AsValidation(err); v != nil {
			return Render(c, a.Views.PanelMiniVideoEdit(*item, v.Fields, CsrfToken(c)))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/home-mini-video/")
}

func (a *App) handleMiniVideoDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteMiniVideo(id); err != nil {
		return notFoundOr(err)
	}
	return c.Redirect(http.StatusSeeOther, "/panel/home-mini-video/")
}
