// Package pages serves the server-rendered admin console: the login form and
// the user management dashboard. Every mutating action is a form POST that
// redirects back to the dashboard.
package pages

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/geocoder89/userdesk/internal/console"
	"github.com/geocoder89/userdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const LoginPath = "/"

// Workspaces hands out the per-session console state.
type Workspaces interface {
	Get(sessionID string) *console.Workspace
	Drop(sessionID string)
}

type Handler struct {
	workspaces Workspaces
	cookie     middlewares.SessionCookie
}

func NewHandler(workspaces Workspaces, cookie middlewares.SessionCookie) *Handler {
	return &Handler{workspaces: workspaces, cookie: cookie}
}

func (h *Handler) workspace(c *gin.Context) *console.Workspace {
	return h.workspaces.Get(middlewares.SessionIDFromContext(c))
}

// TokenChecker adapts the registry for middlewares.RequireToken.
func (h *Handler) TokenChecker(sessionID string) middlewares.TokenChecker {
	return h.workspaces.Get(sessionID).Session
}

func (h *Handler) LoginPage(c *gin.Context) {
	ws := h.workspace(c)

	if ok, err := ws.Session.Authenticated(c.Request.Context()); err == nil && ok {
		c.Redirect(http.StatusFound, console.DashboardPath)
		return
	}

	h.renderLogin(c, http.StatusOK, ws.Login.LastError())
}

func (h *Handler) renderLogin(c *gin.Context, status int, errMsg string) {
	ws := h.workspace(c)
	c.HTML(status, "login.tmpl", loginView{
		Title:   "Sign in",
		Email:   ws.Login.Email(),
		Error:   errMsg,
		Loading: ws.Login.Loading(),
	})
}

// Login always continues under a fresh session id; whatever the old id held
// is discarded first.
func (h *Handler) Login(c *gin.Context) {
	h.discardSession(c)
	ws := h.workspaces.Get(middlewares.RotateSession(c, h.cookie))

	res, err := ws.Login.Submit(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		status := http.StatusBadGateway
		var sc interface{ StatusCode() int }
		if errors.As(err, &sc) && sc.StatusCode() < 500 {
			status = http.StatusUnauthorized
		}
		h.renderLogin(c, status, ws.Login.LastError())
		return
	}

	c.Redirect(http.StatusSeeOther, res.Redirect)
}

// LoginRateLimited renders the login form with a 429.
func (h *Handler) LoginRateLimited(c *gin.Context, _ int) {
	h.renderLogin(c, http.StatusTooManyRequests, "Too many attempts. Please wait a moment.")
}

func (h *Handler) Logout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusSeeOther, LoginPath)
}

func (h *Handler) endSession(c *gin.Context) {
	h.discardSession(c)
	middlewares.RotateSession(c, h.cookie)
}

func (h *Handler) discardSession(c *gin.Context) {
	id := middlewares.SessionIDFromContext(c)
	ws := h.workspaces.Get(id)

	if err := ws.Session.ClearToken(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}

	h.workspaces.Drop(id)
}

// expired handles a 401 from the users API: the stored token is no longer
// accepted, so the session is logged out.
func (h *Handler) expired(c *gin.Context, err error) bool {
	var sc interface{ StatusCode() int }
	if !errors.As(err, &sc) || sc.StatusCode() != http.StatusUnauthorized {
		return false
	}

	h.endSession(c)
	c.Redirect(http.StatusSeeOther, LoginPath)
	return true
}

func (h *Handler) Dashboard(c *gin.Context) {
	board := h.workspace(c).Board
	ctx := c.Request.Context()
	st := board.State()

	page, hasPage := queryPage(c)
	if !hasPage {
		page = st.Cursor
	}

	var err error
	switch {
	case !st.Loaded || c.Query("refresh") != "":
		st, err = board.Load(ctx, page)
	case page != st.Cursor:
		st, err = board.Paginate(ctx, page)
	}

	if err != nil && h.expired(c, err) {
		return
	}

	// a delete can empty the last page; step back to the new last one
	if st.Loaded && len(st.Users) == 0 && st.Cursor > 0 && st.Cursor >= st.PageCount() && st.PageCount() > 0 {
		st, err = board.Load(ctx, st.PageCount()-1)
		if err != nil && h.expired(c, err) {
			return
		}
	}

	v := newDashboardView(board.State(), board.TakeNotice())
	v.Back = backLink(c)
	c.HTML(http.StatusOK, "dashboard.tmpl", v)
}

// State serves the board as JSON without consuming the notice.
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace(c).Board.State())
}

func (h *Handler) AddUser(c *gin.Context) {
	board := h.workspace(c).Board

	if _, err := board.AddUser(c.Request.Context()); err != nil && h.expired(c, err) {
		return
	}
	h.backToDashboard(c, board)
}

func (h *Handler) EditUser(c *gin.Context) {
	board := h.workspace(c).Board

	if id, ok := pathID(c); ok {
		_, _ = board.EditUser(c.Request.Context(), id)
	}
	h.backToDashboard(c, board)
}

// SaveEdit takes the submitted draft and saves it.
func (h *Handler) SaveEdit(c *gin.Context) {
	board := h.workspace(c).Board

	if err := board.UpdatePersonalInfo(c.PostForm("personalInfo")); err == nil {
		if _, err := board.SaveEdit(c.Request.Context()); err != nil && h.expired(c, err) {
			return
		}
	}
	h.backToDashboard(c, board)
}

func (h *Handler) CancelEdit(c *gin.Context) {
	board := h.workspace(c).Board
	board.CancelEdit()
	h.backToDashboard(c, board)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	board := h.workspace(c).Board

	if id, ok := pathID(c); ok {
		if _, err := board.DeleteUser(c.Request.Context(), id); err != nil && h.expired(c, err) {
			return
		}
	}
	h.backToDashboard(c, board)
}

func (h *Handler) backToDashboard(c *gin.Context, board *console.Board) {
	c.Redirect(http.StatusSeeOther, console.DashboardPath+"?page="+strconv.Itoa(board.State().Cursor))
}

// backLink returns the dashboard page the browser came from, or "" when the
// referrer is another site, another screen, or this same page.
func backLink(c *gin.Context) string {
	ref, err := url.Parse(c.Request.Referer())
	if err != nil || ref.Host != c.Request.Host || ref.Path != console.DashboardPath {
		return ""
	}

	back := ref.RequestURI()
	if back == c.Request.URL.RequestURI() {
		return ""
	}
	return back
}

func queryPage(c *gin.Context) (int, bool) {
	raw, ok := c.GetQuery("page")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
