package main

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/wandercms/wandercms"
)

func page(title string, body func(w io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>", html.EscapeString(title))
		fmt.Fprintf(w, "<h1>%s</h1>", html.EscapeString(title))
		if body != nil {
			body(w)
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func postList(w io.Writer, posts []wandercms.Post) {
	io.WriteString(w, "<ul>")
	for _, p := range posts {
		fmt.Fprintf(w, `<li><a href="/blog/%s/">%s</a></li>`,
			html.EscapeString(p.Slug), html.EscapeString(p.Title))
	}
	io.WriteString(w, "</ul>")
}

func csrfField(w io.Writer, token string) {
	fmt.Fprintf(w, `<input type="hidden" name="_csrf" value="%s">`, html.EscapeString(token))
}

// defaultViews returns a plain-HTML template set so the engine can run
// without a caller-supplied theme. Real deployments embed wandercms as a
// library and pass their own templ components.
func defaultViews() wandercms.ViewFuncs {
	return wandercms.ViewFuncs{
		Home: func(ctx wandercms.PageContext, data wandercms.HomeData) templ.Component {
			return page(ctx.Site.Name, func(w io.Writer) {
				postList(w, data.PostsSample)
			})
		},
		PostList: func(ctx wandercms.PageContext, data wandercms.PostListData) templ.Component {
			title := data.Title
			if title == "" {
				title = "Posts"
			}
			return page(title, func(w io.Writer) {
				postList(w, data.Page.Items)
				fmt.Fprintf(w, "<p>Page %d of %d</p>", data.Page.Number, data.Page.TotalPages)
			})
		},
		PostDetail: func(ctx wandercms.PageContext, post wandercms.Post, related []wandercms.Post) templ.Component {
			return page(post.Title, func(w io.Writer) {
				fmt.Fprintf(w, "<article>%s</article>", html.EscapeString(post.Description))
				postList(w, related)
			})
		},
		Categories: func(ctx wandercms.PageContext, hero *wandercms.PageHeroImage, categories []wandercms.Category) templ.Component {
			return page("Categories", func(w io.Writer) {
				io.WriteString(w, "<ul>")
				for _, cat := range categories {
					fmt.Fprintf(w, `<li><a href="/category/%s/">%s</a></li>`,
						html.EscapeString(cat.Slug), html.EscapeString(cat.Name))
				}
				io.WriteString(w, "</ul>")
			})
		},
		Destinations: func(ctx wandercms.PageContext, hero *wandercms.PageHeroImage, destinations []wandercms.Destination) templ.Component {
			return page("Destinations", func(w io.Writer) {
				io.WriteString(w, "<ul>")
				for _, d := range destinations {
					fmt.Fprintf(w, `<li><a href="/destination/%s/">%s</a></li>`,
						html.EscapeString(d.Slug), html.EscapeString(d.Title))
				}
				io.WriteString(w, "</ul>")
			})
		},
		DestinationDetail: func(ctx wandercms.PageContext, destination wandercms.Destination) templ.Component {
			return page(destination.Title, func(w io.Writer) {
				fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(destination.Description))
				for _, city := range destination.Cities {
					fmt.Fprintf(w, "<h2>%s</h2>", html.EscapeString(city.Name))
				}
			})
		},
		About: func(ctx wandercms.PageContext, hero *wandercms.PageHeroImage) templ.Component {
			return page("About", nil)
		},
		Contact: func(ctx wandercms.PageContext, data wandercms.ContactData) templ.Component {
			return page("Contact", func(w io.Writer) {
				if data.Success {
					io.WriteString(w, "<p>Thanks, your message was sent.</p>")
				}
				if data.SendFail {
					io.WriteString(w, "<p>Sorry, your message could not be sent. Please try again.</p>")
				}
				io.WriteString(w, `<form method="post" action="/contact/">`)
				csrfField(w, data.Csrf)
				fmt.Fprintf(w, `<input name="name" value="%s">`, html.EscapeString(data.Form.Name))
				fmt.Fprintf(w, `<input name="email" value="%s">`, html.EscapeString(data.Form.Email))
				fmt.Fprintf(w, `<input name="subject" value="%s">`, html.EscapeString(data.Form.Subject))
				fmt.Fprintf(w, `<textarea name="message">%s</textarea>`, html.EscapeString(data.Form.Body))
				io.WriteString(w, `<button type="submit">Send</button></form>`)
			})
		},
		PrivacyPolicy: func(ctx wandercms.PageContext) templ.Component { return page("Privacy Policy", nil) },
		Terms:         func(ctx wandercms.PageContext) templ.Component { return page("Terms & Conditions", nil) },
		NotFound:      func(ctx wandercms.PageContext) templ.Component { return page("Page Not Found", nil) },
		ServerError:   func(ctx wandercms.PageContext) templ.Component { return page("Something Went Wrong", nil) },

		PanelLogin: func(showError bool, csrfToken string) templ.Component {
			return page("Sign In", func(w io.Writer) {
				if showError {
					io.WriteString(w, "<p>Invalid username or password.</p>")
				}
				io.WriteString(w, `<form method="post" action="/panel/login/">`)
				csrfField(w, csrfToken)
				io.WriteString(w, `<input name="username"><input type="password" name="password">`)
				io.WriteString(w, `<button type="submit">Sign in</button></form>`)
			})
		},
		PanelDashboard: func(stats wandercms.DashboardStats, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Dashboard", func(w io.Writer) {
				flashBanners(w, flash)
				fmt.Fprintf(w, "<p>%d posts, %d published, %d categories, %d destinations</p>",
					stats.Posts, stats.Published, stats.Categories, stats.Destinations)
				postList(w, stats.RecentPosts)
			})
		},
		PanelCategories: func(items []wandercms.Category, errs map[string]string, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Categories", func(w io.Writer) {
				flashBanners(w, flash)
				fieldErrors(w, errs)
				for _, item := range items {
					fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(item.Name))
				}
			})
		},
		PanelCategoryEdit: func(item wandercms.Category, errs map[string]string, csrfToken string) templ.Component {
			return page("Edit Category", func(w io.Writer) { fieldErrors(w, errs) })
		},
		PanelPosts: func(items []wandercms.Post, query string, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Posts", func(w io.Writer) {
				flashBanners(w, flash)
				postList(w, items)
			})
		},
		PanelPostForm: func(item *wandercms.Post, categories []wandercms.Category, errs map[string]string, csrfToken string) templ.Component {
			title := "Create Post"
			if item != nil && item.ID != 0 {
				title = "Edit Post"
			}
			return page(title, func(w io.Writer) { fieldErrors(w, errs) })
		},
		PanelDestinations: func(items []wandercms.Destination, errs map[string]string, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Destinations", func(w io.Writer) {
				flashBanners(w, flash)
				fieldErrors(w, errs)
			})
		},
		PanelDestinationEdit: func(item wandercms.Destination, errs map[string]string, csrfToken string) templ.Component {
			return page("Edit Destination", func(w io.Writer) { fieldErrors(w, errs) })
		},
		PanelHeroes: func(items []wandercms.HeroImage, errs map[string]string, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Hero Images", func(w io.Writer) {
				flashBanners(w, flash)
				fieldErrors(w, errs)
			})
		},
		PanelPageHeroes: func(items []wandercms.PageHeroImage, pages []wandercms.PageKind, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Page Heroes", func(w io.Writer) { flashBanners(w, flash) })
		},
		PanelPageHeroEdit: func(item wandercms.PageHeroImage, errs map[string]string, pages []wandercms.PageKind, csrfToken string) templ.Component {
			return page("Edit Page Hero", func(w io.Writer) { fieldErrors(w, errs) })
		},
		PanelMiniVideos: func(items []wandercms.HomeMiniVideo, errs map[string]string, flash wandercms.Flash, csrfToken string) templ.Component {
			return page("Home Mini Videos", func(w io.Writer) {
				flashBanners(w, flash)
				fieldErrors(w, errs)
			})
		},
		PanelMiniVideoEdit: func(item wandercms.HomeMiniVideo, errs map[string]string, csrfToken string) templ.Component {
			return page("Edit Mini Video", func(w io.Writer) { fieldErrors(w, errs) })
		},
		PanelPasswordChange: func(errs map[string]string, csrfToken string) templ.Component {
			return page("Change Password", func(w io.Writer) { fieldErrors(w, errs) })
		},
	}
}

func flashBanners(w io.Writer, flash wandercms.Flash) {
	if flash.Success != "" {
		fmt.Fprintf(w, `<p class="success">%s</p>`, html.EscapeString(flash.Success))
	}
	if flash.Error != "" {
		fmt.Fprintf(w, `<p class="error">%s</p>`, html.EscapeString(flash.Error))
	}
}

func fieldErrors(w io.Writer, errs map[string]string) {
	for field, msg := range errs {
		fmt.Fprintf(w, `<p class="error">%s: %s</p>`, html.EscapeString(field), html.EscapeString(msg))
	}
}
