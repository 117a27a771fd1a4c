package http

import (
	"github.com/geocoder89/userdesk/internal/http/handlers"
	"github.com/geocoder89/userdesk/internal/http/middlewares"
	"github.com/geocoder89/userdesk/internal/http/pages"
	"github.com/geocoder89/userdesk/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxFormBytes = 64 << 10

type ConsoleDeps struct {
	Env         string
	ServiceName string

	Workspaces   pages.Workspaces
	Cookie       middlewares.SessionCookie
	LoginLimiter *middlewares.RateLimiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ready    []handlers.Pinger
}

func baseEngine(env, serviceName string, prom *observability.Prom) *gin.Engine {
	if env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	return r
}

func mountOps(r *gin.Engine, ready []handlers.Pinger, gatherer prometheus.Gatherer) {
	h := handlers.NewHealthHandler(ready...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// NewConsoleRouter serves the browser-facing admin console.
func NewConsoleRouter(d ConsoleDeps) *gin.Engine {
	r := baseEngine(d.Env, d.ServiceName, d.Prom)
	r.SetHTMLTemplate(pages.Templates())

	mountOps(r, d.Ready, d.Gatherer)

	p := pages.NewHandler(d.Workspaces, d.Cookie)

	ui := r.Group("/")
	ui.Use(middlewares.SecurityHeaders(middlewares.PageCSP))
	ui.Use(middlewares.MaxBodyBytes(maxFormBytes))
	ui.Use(middlewares.AttachSession(d.Cookie))

	ui.GET("/", p.LoginPage)

	login := []gin.HandlerFunc{p.Login}
	if d.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{d.LoginLimiter.Middleware(middlewares.KeyByIP, p.LoginRateLimited)}, login...)
	}
	ui.POST("/login", login...)
	ui.POST("/logout", p.Logout)

	dash := ui.Group("/dashboard")
	dash.Use(middlewares.RequireToken(p.TokenChecker, pages.LoginPath))
	{
		dash.GET("", p.Dashboard)
		dash.GET("/state", p.State)
		dash.POST("/users", p.AddUser)
		dash.POST("/users/:id/edit", p.EditUser)
		dash.POST("/users/:id/delete", p.DeleteUser)
		dash.POST("/edit", p.SaveEdit)
		dash.POST("/edit/cancel", p.CancelEdit)
	}

	return r
}

type APIDeps struct {
	Env         string
	ServiceName string

	Users        handlers.UsersStore
	Accounts     handlers.AccountReader
	Tokens       handlers.TokenIssuer
	Verifier     middlewares.TokenVerifier
	LoginLimiter *middlewares.RateLimiter
	CORSOrigins  []string
	AdminRole    string

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ready    []handlers.Pinger
}

// NewAPIRouter serves the users API under /api.
func NewAPIRouter(d APIDeps) *gin.Engine {
	r := baseEngine(d.Env, d.ServiceName, d.Prom)

	mountOps(r, d.Ready, d.Gatherer)

	authH := handlers.NewAuthHandler(d.Accounts, d.Tokens)
	usersH := handlers.NewUsersHandler(d.Users)
	authMw := middlewares.NewAuthMiddleware(d.Verifier)

	api := r.Group("/api")
	api.Use(middlewares.CORS(d.CORSOrigins))
	api.Use(middlewares.SecurityHeaders(middlewares.APICSP))
	api.Use(middlewares.MaxBodyBytes(1 << 20))
	api.Use(middlewares.RequireJSON())

	login := []gin.HandlerFunc{authH.Login}
	if d.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{d.LoginLimiter.Middleware(middlewares.KeyByIP, nil)}, login...)
	}
	api.POST("/login", login...)

	adminRole := d.AdminRole
	if adminRole == "" {
		adminRole = "admin"
	}

	users := api.Group("/users")
	users.Use(authMw.RequireAuth())
	{
		users.GET("", usersH.ListUsers)
		users.GET("/:id", usersH.GetUser)

		writes := users.Group("")
		writes.Use(authMw.RequireRole(adminRole))
		writes.POST("", usersH.CreateUser)
		writes.PUT("/:id", usersH.UpdateUser)
		writes.DELETE("/:id", usersH.DeleteUser)
	}

	return r
}
