package http

import (
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC *usecase.ProductUseCase
	StoreUC   *usecase.StoreUseCase
	Engine    *inventory.TransferEngine
	Query     *inventory.QueryUseCase
	AuthUC    *auth.AuthUseCase
	JWTSecret string
	RateLimit int // escrituras de inventario por minuto e IP; 0 = sin límite
	Log       zerolog.Logger
}

// Router registra las rutas de la API. Lecturas públicas; escrituras con JWT de admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	admin := []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(auth.RoleAdmin)}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", with(admin, productHandler.Create)...)
	products.Put("/:id", with(admin, productHandler.Update)...)
	products.Delete("/:id", with(admin, productHandler.Delete)...)

	// Stores
	stores := api.Group("/stores")
	storeHandler := NewStoreHandler(deps.StoreUC, deps.Query, deps.Log)
	stores.Get("/", storeHandler.List)
	stores.Get("/:id", storeHandler.GetByID)
	stores.Get("/:id/inventory", storeHandler.Inventory)
	stores.Post("/", with(admin, storeHandler.Create)...)

	// Inventory
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Query, deps.Log)
	writes := slices.Concat(admin, rateLimiter(deps.RateLimit))
	inv.Post("/transfer", with(writes, inventoryHandler.Transfer)...)
	inv.Post("/movements", with(writes, inventoryHandler.RegisterMovement)...)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Put("/min-stock", with(admin, inventoryHandler.SetMinStock)...)
	inv.Get("/alerts", inventoryHandler.Alerts)
	inv.Get("/alerts/report.pdf", inventoryHandler.AlertsReport)
}

func with(chain []fiber.Handler, h fiber.Handler) []fiber.Handler {
	return slices.Concat(chain, []fiber.Handler{h})
}

// rateLimiter ventana fija de un minuto por IP.
func rateLimiter(maxPerMinute int) []fiber.Handler {
	if maxPerMinute <= 0 {
		return nil
	}
	return []fiber.Handler{limiter.New(limiter.Config{
		Max:        maxPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde"})
		},
	})}
}
