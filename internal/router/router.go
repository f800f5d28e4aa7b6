package router

import (
	"strings"
	"time"

	"swiftaza/internal/config"
	"swiftaza/internal/handler"
	"swiftaza/internal/infra"
	"swiftaza/internal/middleware"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"
	"swiftaza/internal/service"
	"swiftaza/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Permission codes guarding route groups.
const (
	permManage      = "adm101"
	permWalletBuyer = "buy101"
	permWalletShop  = "sel101"
)

// App is the wired HTTP engine plus the services the composition root
// schedules background work on.
type App struct {
	Engine       *gin.Engine
	Verification service.VerificationService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, events infra.EventPublisher, smtpCB *infra.CircuitBreaker) *App {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if events == nil {
		events = infra.NopPublisher{}
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	profileRepo := repository.NewProfileRepository(rdb)
	archiveRepo := repository.NewArchiveRepository(rdb)

	var codeStore repository.CodeStore
	if strings.EqualFold(cfg.VerificationStore, "memory") {
		codeStore = repository.NewMemoryCodeStore()
	} else {
		codeStore = repository.NewRedisCodeStore(rdb)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	authz := service.NewAuthorizer(roleRepo)
	provisioner := service.NewProvisioner(roleRepo)
	coord := service.NewCoordinator(userRepo, roleRepo, walletRepo, profileRepo, archiveRepo, authz)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	verifySvc := service.NewVerificationService(codeStore, userRepo, coord, dispatcher, events, cfg.VerificationCodeTTL())
	userSvc := service.NewUserService(userRepo, roleRepo, archiveRepo, provisioner, coord, verifySvc, tokens, events)
	authSvc := service.NewAuthService(userRepo, roleRepo, coord, authz, verifySvc, tokens)
	walletSvc := service.NewWalletService(walletRepo, userRepo, coord)
	permSvc := service.NewPermissionService(roleRepo, provisioner, authz, coord)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(userSvc, authz)
	managerH := handler.NewManagerHandler(userSvc, permSvc)
	permH := handler.NewPermissionHandler(permSvc)
	walletH := handler.NewWalletHandler(walletSvc, authz)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(handler.SQLPinger(db), rdb, smtpCB))

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	requireAny := func(codes ...string) gin.HandlerFunc {
		return middleware.RequirePermission(profileRepo, authz, codes...)
	}

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		credLimiter := middleware.LoginRateLimiter()
		auth.POST("/login", credLimiter, authH.Login)
		auth.POST("/verify_user", credLimiter, authH.VerifyUser)
		auth.POST("/resend_code", credLimiter, authH.ResendCode)
		auth.POST("/logout", jwtMW, authH.Logout)
		auth.GET("/status", jwtMW, authH.Status)
	}

	for _, kind := range []model.UserKind{model.KindBuyer, model.KindSeller} {
		g := v1.Group("/" + string(kind))
		g.POST("", usersH.Register(kind))
		g.PUT("/update", jwtMW, usersH.Update(kind))
		g.DELETE("/:full_name", jwtMW, usersH.DeleteByFullName(kind))
	}

	// Managers are created by other managers; the first one comes from cmd/seedmanager.
	mgr := v1.Group("/manager", jwtMW, requireAny(permManage))
	{
		mgr.POST("", usersH.Register(model.KindManager))
		mgr.GET("/users/:type", managerH.ListUsers)
		mgr.GET("/user/:email", managerH.GetUser)
		mgr.DELETE("/user/:id", managerH.DeleteUser)
		mgr.PUT("/user/:id/role", managerH.AssignRole)
		mgr.PUT("/user/:id/permissions", managerH.SetPermissions)
		mgr.DELETE("/user/:id/permissions/:code", managerH.RemovePermission)
		mgr.GET("/deleted_users", managerH.DeletedUsers)
	}

	cards := v1.Group("/user", jwtMW)
	{
		cards.GET("/get_user/:card_number", requireAny(permManage, permWalletShop), usersH.GetByCardNumber)
		cards.GET("/get_all_users", requireAny(permManage), usersH.ListAll)
		cards.DELETE("/:card_number", requireAny(permManage), usersH.DeleteByCardNumber)
	}

	perms := v1.Group("/user_permission", jwtMW)
	{
		perms.GET("/user", permH.Mine)
		perms.GET("/check/:code", permH.Check)
	}

	wallet := v1.Group("/wallet")
	{
		wallet.POST("", jwtMW, walletH.CreatePin)
		wallet.GET("", jwtMW, walletH.Get)
		funds := wallet.Group("", jwtMW, requireAny(permWalletBuyer, permWalletShop, permManage))
		funds.POST("/credit", walletH.Credit)
		funds.POST("/debit", walletH.Debit)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{Engine: r, Verification: verifySvc}
}
