package wandercms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// text returns a component that writes a recognizable marker.
func text(marker string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, marker)
		return err
	})
}

func testViews() ViewFuncs {
	return ViewFuncs{
		Home: func(ctx PageContext, data HomeData) templ.Component { return text("home") },
		PostList: func(ctx PageContext, data PostListData) templ.Component {
			return text("post-list")
		},
		PostDetail: func(ctx PageContext, post Post, related []Post) templ.Component {
			return text("post:" + post.Slug)
		},
		Categories: func(ctx PageContext, hero *PageHeroImage, categories []Category) templ.Component {
			return text("categories")
		},
		Destinations: func(ctx PageContext, hero *PageHeroImage, destinations []Destination) templ.Component {
			return text("destinations")
		},
		DestinationDetail: func(ctx PageContext, destination Destination) templ.Component {
			return text("destination:" + destination.Slug)
		},
		About: func(ctx PageContext, hero *PageHeroImage) templ.Component { return text("about") },
		Contact: func(ctx PageContext, data ContactData) templ.Component {
			switch {
			case data.Success:
				return text("contact-success")
			case data.SendFail:
				return text("contact-send-fail:" + data.Form.Name)
			case len(data.Errors) > 0:
				return text("contact-invalid")
			}
			return text("contact-form")
		},
		PrivacyPolicy: func(ctx PageContext) templ.Component { return text("privacy") },
		Terms:         func(ctx PageContext) templ.Component { return text("terms") },
		NotFound:      func(ctx PageContext) templ.Component { return text("not-found") },
		ServerError:   func(ctx PageContext) templ.Component { return text("server-error") },

		PanelLogin: func(showError bool, csrfToken string) templ.Component {
			if showError {
				return text("login-failed")
			}
			return text("login-form")
		},
		PanelDashboard: func(stats DashboardStats, flash Flash, csrfToken string) templ.Component {
			return text("dashboard flash:" + flash.Success)
		},
		PanelCategories: func(items []Category, errs map[string]string, flash Flash, csrfToken string) templ.Component {
			return text("panel-categories")
		},
		PanelCategoryEdit: func(item Category, errs map[string]string, csrfToken string) templ.Component {
			return text("panel-category-edit")
		},
		PanelPosts: func(items []Post, query string, flash Flash, csrfToken string) templ.Component {
			return text("panel-posts")
		},
		PanelPostForm: func(item *Post, categories []Category, errs map[string]string, csrfToken string) templ.Component {
			return text("panel-post-form")
		},
		PanelDestinations: func(items []Destination, errs map[string]string, flash Flash, csrfToken string) templ.Component {
			return text("panel-destinations")
		},
		PanelDestinationEdit: func(item Destination, errs map[string]string, csrfToken string) templ.Component {
			return text("panel-destination-edit")
		},
		PanelHeroes: func(items []HeroImage, errs map[string]string, flash Flash, csrfToken string) templ.Component {
			return text("panel-heroes")
		},
		PanelPageHeroes: func(items []PageHeroImage, pages []PageKind, flash Flash, csrfToken string) templ.Component {
			return text("panel-page-heroes flash:" + flash.Success + flash.Error)
		},
		PanelPageHeroEdit: func(item PageHeroImage, errs map[string]string, pages []PageKind, csrfToken string) templ.Component {
			return text("panel-page-hero-edit")
		},
		PanelMiniVideos: func(items []HomeMiniVideo, errs map[string]string, flash Flash, csrfToken string) templ.Component {
			return text("panel-mini-videos")
		},
		PanelMiniVideoEdit: func(item HomeMiniVideo, errs map[string]string, csrfToken string) templ.Component {
			return text("panel-mini-video-edit")
		},
		PanelPasswordChange: func(errs map[string]string, csrfToken string) templ.Component {
			if len(errs) > 0 {
				return text("password-change-errors")
			}
			return text("password-change-form")
		},
	}
}

type stubMailer struct {
	sent []ContactMessage
	err  error
}

func (m *stubMailer) SendContact(msg ContactMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestApp(t *testing.T, mailer Mailer) *App {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := SiteConfig{
		Name:          "TestSite",
		URL:           "http://localhost:3000",
		DatabasePath:  filepath.Join(dir, "test.db"),
		MediaRoot:     filepath.Join(dir, "media"),
		StaticDir:     filepath.Join(dir, "public"),
		SessionSecret: "test-secret",
	}
	app := New(cfg, testViews(), WithLogger(logger), WithMailer(mailer))
	if err := app.init(); err != nil {
		t.Fatalf("failed to init app: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

// client carries cookies between requests, enough to hold a session.
type client struct {
	app     *App
	cookies map[string]*http.Cookie
}

func newClient(app *App) *client {
	return &client{app: app, cookies: map[string]*http.Cookie{}}
}

const csrfTestToken = "csrf-test-token"

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		form.Set("_csrf", csrfTestToken)
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: csrfTestToken})
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.app.Echo.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) login(t *testing.T, username, password string) {
	t.Helper()
	rec := c.do(http.MethodPost, "/panel/login/", url.Values{
		"username": {username},
		"password": {password},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login failed: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestStaffGateRedirectsAnonymous(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	rec := newClient(app).do(http.MethodGet, "/panel/dashboard/", nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/panel/login/" {
		t.Fatalf("expected redirect to login, got %q", loc)
	}
}

func TestLoginGrantsDashboardAccess(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("editor", "secret123", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "editor", "secret123")

	rec := c.do(http.MethodGet, "/panel/dashboard/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dashboard") {
		t.Fatalf("expected dashboard view, got %q", rec.Body.String())
	}
}

func TestNonStaffUserIsBlocked(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("reader", "secret123", false); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "reader", "secret123")

	rec := c.do(http.MethodGet, "/panel/dashboard/", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected non-staff to be redirected, got %d", rec.Code)
	}
}

func TestLoginFailureRerendersForm(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("editor", "secret123", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := newClient(app).do(http.MethodPost, "/panel/login/", url.Values{
		"username": {"editor"},
		"password": {"wrong"},
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "login-failed") {
		t.Fatalf("expected failed login view, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("editor", "secret123", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "editor", "secret123")
	c.do(http.MethodGet, "/panel/logout/", nil)

	rec := c.do(http.MethodGet, "/panel/dashboard/", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
}

func TestPasswordChangeKeepsSession(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	user, err := app.Store.CreateUser("editor", "secret123", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "editor", "secret123")

	rec := c.do(http.MethodPost, "/panel/password/change/", url.Values{
		"current_password": {"secret123"},
		"new_password":     {"fresher456"},
		"confirm_password": {"fresher456"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after change, got %d %s", rec.Code, rec.Body.String())
	}

	rec = c.do(http.MethodGet, "/panel/dashboard/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session should survive password change, got %d", rec.Code)
	}

	reloaded, err := app.Store.UserByID(user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.CheckPassword("fresher456") {
		t.Fatalf("new password should verify")
	}
}

func TestPasswordChangeRejectsWrongCurrent(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("editor", "secret123", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "editor", "secret123")

	rec := c.do(http.MethodPost, "/panel/password/change/", url.Values{
		"current_password": {"wrong"},
		"new_password":     {"fresher456"},
		"confirm_password": {"fresher456"},
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "password-change-errors") {
		t.Fatalf("expected re-rendered form, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestContactDeliverySuccess(t *testing.T) {
	mailer := &stubMailer{}
	app := newTestApp(t, mailer)

	rec := newClient(app).do(http.MethodPost, "/contact/", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello there"},
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "contact-success") {
		t.Fatalf("expected success view, got %d %q", rec.Code, rec.Body.String())
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Email != "ada@example.com" {
		t.Fatalf("expected one delivered message, got %+v", mailer.sent)
	}
}

func TestContactDeliveryFailureIsRecovered(t *testing.T) {
	mailer := &stubMailer{err: errors.New("smtp down")}
	app := newTestApp(t, mailer)

	rec := newClient(app).do(http.MethodPost, "/contact/", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello there"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery failure must not 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "contact-send-fail:Ada") {
		t.Fatalf("expected entered values preserved, got %q", rec.Body.String())
	}
}

func TestContactValidation(t *testing.T) {
	app := newTestApp(t, &stubMailer{})

	rec := newClient(app).do(http.MethodPost, "/contact/", url.Values{
		"name": {"Ada"},
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "contact-invalid") {
		t.Fatalf("expected validation view, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestDraftPostReturns404(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	draft := Post{Title: "Secret Draft", Description: "not yet"}
	if err := app.Store.CreatePost(&draft, nil); err != nil {
		t.Fatalf("create post: %v", err)
	}

	rec := newClient(app).do(http.MethodGet, "/blog/"+draft.Slug+"/", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not-found") {
		t.Fatalf("expected 404 page, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPublishedPostRenders(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	post := Post{Title: "Live Post", Description: "words", IsPublished: true}
	if err := app.Store.CreatePost(&post, nil); err != nil {
		t.Fatalf("create post: %v", err)
	}

	rec := newClient(app).do(http.MethodGet, "/blog/"+post.Slug+"/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "post:"+post.Slug) {
		t.Fatalf("expected post view, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHomeRenders(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	rec := newClient(app).do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "home") {
		t.Fatalf("expected home view, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPageHeroCreateFlash(t *testing.T) {
	app := newTestApp(t, &stubMailer{})
	if _, err := app.Store.CreateUser("editor", "secret123", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c := newClient(app)
	c.login(t, "editor", "secret123")

	// No image supplied, so the create fails and the banner lands on the list.
	rec := c.do(http.MethodPost, "/panel/page-hero/create/", url.Values{
		"page":  {"about"},
		"title": {"About Us"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect-with-flash, got %d", rec.Code)
	}
	rec = c.do(http.MethodGet, "/panel/page-hero/", nil)
	if !strings.Contains(rec.Body.String(), "hero section") {
		t.Fatalf("expected error banner on list page, got %q", rec.Body.String())
	}
}
