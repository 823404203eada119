package http

import (
	"github.com/geocoder89/todohub/internal/account"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Dependencies is everything the router needs, built once in main.
type Dependencies struct {
	Config config.Config

	Users  account.UserStore
	Todos  handlers.TodosStore
	Cache  cache.Store
	Hasher account.CredentialHasher
	Tokens *auth.Manager

	// optional; metrics are skipped when nil
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// readiness probes by dependency name
	Checks map[string]handlers.PingFunc
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// content-type checks run per write route, after authorization, so an
	// unauthenticated caller always sees 403 first
	requireJSON := middlewares.RequireJSON()

	// health
	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up the account service and its handlers
	accounts := account.NewService(deps.Users, deps.Tokens, deps.Hasher)
	authHandler := handlers.NewAuthHandler(accounts, cfg.RequestTimeout)

	r.POST("/signup", requireJSON, authHandler.Signup)
	r.POST("/login", requireJSON, authHandler.Login)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, accounts, cfg.RequestTimeout)
	todosHandler := handlers.NewTodosHandler(deps.Todos, deps.Cache, cfg.RequestTimeout)
	if deps.Prom != nil {
		authMW = authMW.WithObserver(deps.Prom)
		todosHandler = todosHandler.WithObserver(deps.Prom)
	}

	usersHandler := handlers.NewUsersHandler()
	r.GET("/user/:id", authMW.RequireOwner(middlewares.OwnerFromParam("id")), usersHandler.GetProfile)

	// every todo route acts on the ?userId= owner
	todos := r.Group("", authMW.RequireOwner(middlewares.OwnerFromQuery("userId")))
	{
		todos.POST("/todo/create", requireJSON, todosHandler.CreateTodo)
		todos.GET("/todos", todosHandler.ListTodos)
		todos.PATCH("/todo/:id/update", requireJSON, todosHandler.UpdateTodo)
		todos.POST("/todo/:id/update", requireJSON, todosHandler.UpdateTodo)
	}

	return r
}
