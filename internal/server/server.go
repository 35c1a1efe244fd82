package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"horizon/internal/config"
	"horizon/internal/handler"
	"horizon/internal/middleware"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/internal/service"
	"horizon/internal/token"
)

// Server represents the HTTP server.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	mongo  *mongo.Client
}

// Repositories groups the persistence layer.
type Repositories struct {
	Users       repository.IUserRepository
	Orgs        repository.IOrgRepository
	Memberships repository.IMembershipRepository
	Expenses    repository.IExpenseRepository
	Tasks       repository.ITaskRepository
	Txn         repository.TxnRunner
}

// Services groups the business layer.
type Services struct {
	Tokens      *token.Service
	Users       *service.UserService
	Orgs        *service.OrgService
	Memberships *service.MembershipService
	Auth        *service.AuthService
	Expenses    *service.ExpenseService
	Tasks       *service.TaskService
}

// Handlers groups the HTTP layer.
type Handlers struct {
	Auth    *handler.AuthHandler
	Org     *handler.OrgHandler
	Expense *handler.ExpenseHandler
	Task    *handler.TaskHandler
}

// New creates a new server instance.
func New(cfg *config.Config) (*Server, error) {
	mongoClient, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	repos := InitRepositories(mongoClient, db)
	services, err := InitServices(cfg, repos)
	if err != nil {
		return nil, err
	}
	handlers := InitHandlers(services)
	router := setupRouter(cfg, handlers, services, repos)

	return &Server{cfg: cfg, router: router, mongo: mongoClient}, nil
}

func Connect(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func InitRepositories(client *mongo.Client, db *mongo.Database) *Repositories {
	return &Repositories{
		Users:       repository.NewUserRepository(db),
		Orgs:        repository.NewOrgRepository(db),
		Memberships: repository.NewMembershipRepository(db),
		Expenses:    repository.NewExpenseRepository(db),
		Tasks:       repository.NewTaskRepository(db),
		Txn:         repository.NewTxnRunner(client),
	}
}

func InitServices(cfg *config.Config, r *Repositories) (*Services, error) {
	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	users := service.NewUserService(cfg, r.Users, r.Memberships)
	memberships := service.NewMembershipService(cfg, r.Memberships, r.Users, users, r.Txn)
	return &Services{
		Tokens:      tokens,
		Users:       users,
		Orgs:        service.NewOrgService(r.Orgs),
		Memberships: memberships,
		Auth:        service.NewAuthService(cfg, users, memberships, r.Orgs, tokens, r.Txn),
		Expenses:    service.NewExpenseService(r.Expenses, r.Orgs),
		Tasks:       service.NewTaskService(r.Tasks, r.Memberships),
	}, nil
}

func InitHandlers(s *Services) *Handlers {
	return &Handlers{
		Auth:    handler.NewAuthHandler(s.Auth, s.Users, s.Memberships),
		Org:     handler.NewOrgHandler(s.Orgs, s.Memberships),
		Expense: handler.NewExpenseHandler(s.Expenses),
		Task:    handler.NewTaskHandler(s.Tasks),
	}
}

// Close disconnects the MongoDB client.
func (s *Server) Close() error {
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.mongo.Disconnect(ctx)
	}
	return nil
}

// Run starts the server.
func (s *Server) Run() error {
	log.Info().Str("address", s.cfg.Server.Address()).Msg("server listening")
	return s.router.Run(s.cfg.Server.Address())
}

func setupRouter(cfg *config.Config, h *Handlers, s *Services, r *Repositories) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.SetTrustedProxies(nil)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public authentication routes
	auth := api.Group("/auth")
	auth.POST("/register-owner", h.Auth.RegisterOwner)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/complete-setup/:token", h.Auth.CompleteSetup)
	auth.POST("/request-password-reset", h.Auth.RequestPasswordReset)
	auth.POST("/reset-password/:token", h.Auth.ResetPassword)

	// Authenticated routes; /auth/me stays reachable for inactive principals
	authed := api.Group("")
	authed.Use(middleware.Authenticate(s.Tokens, r.Users, r.Memberships, r.Orgs))
	authed.GET("/auth/me", h.Auth.Me)

	active := authed.Group("")
	active.Use(middleware.RequireActivated())
	active.POST("/auth/set-active-organization", h.Auth.SwitchOrg)
	active.PUT("/auth/me/preferences", h.Auth.UpdatePreferences)

	// Routes requiring an active organization context
	org := active.Group("/organizations/my")
	org.Use(middleware.RequireActiveOrganization())
	{
		org.GET("", middleware.RequireRole(model.RoleOwner, model.RoleMember), h.Org.Get)
		org.PUT("", middleware.RequireRole(model.RoleOwner), h.Org.Update)
		org.GET("/members", middleware.RequireRole(model.RoleOwner, model.RoleMember), h.Org.ListMembers)
		org.POST("/members/provision", middleware.RequireRole(model.RoleOwner), h.Org.ProvisionMember)
		org.PUT("/members/:principalId/role", middleware.RequireRole(model.RoleOwner), h.Org.ChangeMemberRole)
		org.DELETE("/members/:principalId", middleware.RequireRole(model.RoleOwner), h.Org.RemoveMember)
	}

	expenses := active.Group("/expenses")
	expenses.Use(middleware.RequireActiveOrganization(), middleware.RequireRole(model.RoleOwner, model.RoleMember))
	{
		expenses.GET("", h.Expense.List)
		expenses.GET("/summary", h.Expense.Summary)
		expenses.POST("", h.Expense.Create)
		expenses.GET("/:id", h.Expense.Get)
		expenses.PUT("/:id", h.Expense.Update)
		expenses.DELETE("/:id", middleware.RequireRole(model.RoleOwner), h.Expense.Delete)
	}

	tasks := active.Group("/tasks")
	tasks.Use(middleware.RequireActiveOrganization(), middleware.RequireRole(model.RoleOwner, model.RoleMember))
	{
		tasks.GET("", h.Task.List)
		tasks.POST("", h.Task.Create)
		tasks.GET("/:id", h.Task.Get)
		tasks.PUT("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
	}

	return router
}
