package router

import (
	"time"

	"posledger/internal/config"
	"posledger/internal/handler"
	"posledger/internal/middleware"
	"posledger/internal/repository"
	"posledger/internal/service"
	"posledger/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	ledgerSvc := service.NewLedgerService(productRepo, movementRepo, auditRepo)
	productSvc := service.NewProductService(productRepo, auditRepo, ledgerSvc, rdb)
	shiftSvc := service.NewShiftService(shiftRepo, auditRepo)
	commissionSvc := service.NewCommissionService(saleRepo, returnRepo, userRepo)
	auditSvc := service.NewAuditService(auditRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	saleSvc := service.NewSaleService(saleRepo, productRepo, shiftRepo, returnRepo, auditRepo, ledgerSvc, dispatcher)
	returnSvc := service.NewReturnService(returnRepo, saleRepo, shiftRepo, auditRepo, ledgerSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	inventoryH := handler.NewInventoryHandler(ledgerSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	returnsH := handler.NewReturnsHandler(returnSvc)
	shiftsH := handler.NewShiftsHandler(shiftSvc)
	commissionsH := handler.NewCommissionsHandler(commissionSvc)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisorUp := middleware.RequireRole("supervisor", "admin")
		adminOnly := middleware.RequireRole("admin")

		v1.POST("/sales", anyStaff, salesH.CreateSale)
		v1.GET("/sales", anyStaff, salesH.ListSales)
		v1.GET("/sales/:id", anyStaff, salesH.GetSale)
		// Voiding reverses stock and cash — supervisor or admin
		v1.POST("/sales/:id/void", supervisorUp, salesH.VoidSale)
		v1.GET("/sales/:id/returns", anyStaff, returnsH.ListBySale)

		v1.POST("/returns", anyStaff, returnsH.CreateReturn)
		v1.GET("/returns/:id", anyStaff, returnsH.GetReturn)

		shifts := v1.Group("/shifts")
		{
			shifts.POST("/open", anyStaff, shiftsH.OpenShift)
			shifts.POST("/close", anyStaff, shiftsH.CloseShift)
			shifts.POST("/movements", anyStaff, shiftsH.RecordMovement)
			shifts.GET("/active", anyStaff, shiftsH.ActiveShift)
			shifts.GET("/:id", anyStaff, shiftsH.Report)
			shifts.GET("", supervisorUp, shiftsH.History)
		}

		inv := v1.Group("/inventory", supervisorUp)
		{
			inv.POST("/adjustments", inventoryH.AdjustStock)
			inv.GET("/movements", inventoryH.ListMovements)
			inv.GET("/stock/:id", inventoryH.CurrentStock)
			inv.GET("/alerts", inventoryH.LowStockAlerts)
			inv.GET("/verify/:id", inventoryH.VerifyProduct)
		}

		// GET /v1/products — all staff can read (catalog sync)
		v1.GET("/products", anyStaff, productsH.ListProducts)
		v1.GET("/products/:id", anyStaff, productsH.GetProduct)
		v1.GET("/products/barcode/:barcode", anyStaff, productsH.GetByBarcode)
		v1.GET("/price-check/:barcode", anyStaff, productsH.PriceCheck)
		// Write operations — admin only
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", productsH.CreateProduct)
			prods.PUT("/:id", productsH.UpdateProduct)
			prods.DELETE("/:id", productsH.DeactivateProduct)
		}

		v1.GET("/commissions", supervisorUp, commissionsH.Compute)
		v1.GET("/audit", adminOnly, auditH.List)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
