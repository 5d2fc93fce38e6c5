package wandercms

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
)

const sessionName = "panel_session"

// principalKey is the echo context key the staff gate stores the User under.
const principalKey = "principal"

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// CurrentUser returns the authenticated principal for the request, or nil.
func (a *App) CurrentUser(c echo.Context) *User {
	if u, ok := c.Get(principalKey).(*User); ok {
		return u
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	id, ok := sess.Values["user_id"].(uint)
	if !ok {
		return nil
	}
	user, err := a.Store.UserByID(id)
	if err != nil {
		return nil
	}
	c.Set(principalKey, user)
	return user
}

// requireStaff rejects unauthenticated or non-staff principals before any
// store access and sends them to the login page.
func (a *App) requireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := a.CurrentUser(c)
		if user == nil || !user.IsActive || !user.IsStaff {
			return c.Redirect(http.StatusSeeOther, "/panel/login/")
		}
		return next(c)
	}
}

func setUserSession(c echo.Context, userID uint) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return eris.Wrap(err, "getting session")
	}
	sess.Values["user_id"] = userID
	return sess.Save(c.Request(), c.Response())
}

func clearUserSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return eris.Wrap(err, "getting session")
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// Flash carries one-shot banners across a redirect.
type Flash struct {
	Success string
	Error   string
}

func setFlash(c echo.Context, flash Flash) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return eris.Wrap(err, "getting session")
	}
	if flash.Success != "" {
		sess.Values["flash_success"] = flash.Success
	}
	if flash.Error != "" {
		sess.Values["flash_error"] = flash.Error
	}
	return sess.Save(c.Request(), c.Response())
}

// popFlash returns and clears any pending banners.
func popFlash(c echo.Context) Flash {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return Flash{}
	}
	var flash Flash
	if v, ok := sess.Values["flash_success"].(string); ok {
		flash.Success = v
		delete(sess.Values, "flash_success")
	}
	if v, ok := sess.Values["flash_error"].(string); ok {
		flash.Error = v
		delete(sess.Values, "flash_error")
	}
	if flash.Success != "" || flash.Error != "" {
		_ = sess.Save(c.Request(), c.Response())
	}
	return flash
}

// handlePanelRoot sends logged-in users to the dashboard; the staff gate on
// the dashboard handles everyone else.
func (a *App) handlePanelRoot(c echo.Context) error {
	if a.CurrentUser(c) == nil {
		return c.Redirect(http.StatusSeeOther, "/panel/login/")
	}
	return c.Redirect(http.StatusSeeOther, "/panel/dashboard/")
}

func (a *App) handleLoginForm(c echo.Context) error {
	if user := a.CurrentUser(c); user != nil && user.IsStaff && user.IsActive {
		return c.Redirect(http.StatusSeeOther, "/panel/dashboard/")
	}
	return Render(c, a.Views.PanelLogin(false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	user, err := a.Store.UserByUsername(username)
	if err != nil || !user.IsActive || !user.CheckPassword(password) {
		a.loginLimiter.Record(ip)
		a.Logger.WithField("username", username).Warn("failed panel login")
		return Render(c, a.Views.PanelLogin(true, CsrfToken(c)))
	}
	if err := setUserSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/dashboard/")
}

// handleLogout terminates the session and returns to the login screen. It is
// registered for both POST and plain GET navigation.
func (a *App) handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/login/")
}

func (a *App) handlePasswordChangeForm(c echo.Context) error {
	return Render(c, a.Views.PanelPasswordChange(nil, CsrfToken(c)))
}

// handlePasswordChange verifies the current credential, applies the strength
// policy, and swaps the hash. The caller's own session stays valid.
func (a *App) handlePasswordChange(c echo.Context) error {
	user := a.CurrentUser(c)
	current := c.FormValue("current_password")
	newPassword := c.FormValue("new_password")
	confirm := c.FormValue("confirm_password")

	errs := map[string]string{}
	if !user.CheckPassword(current) {
		errs["current_password"] = "Current password is incorrect."
	}
	if newPassword != confirm {
		errs["confirm_password"] = "New passwords do not match."
	}
	if len(errs) == 0 {
		if err := a.Store.UpdatePassword(user.ID, newPassword); err != nil {
			if v := AsValidation(err); v != nil {
				errs = v.Fields
			} else {
				return err
			}
		}
	}
	if len(errs) > 0 {
		return Render(c, a.Views.PanelPasswordChange(errs, CsrfToken(c)))
	}
	if err := setFlash(c, Flash{Success: "Password updated successfully."}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/panel/dashboard/")
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get("csrf").(string)
	return token
}
