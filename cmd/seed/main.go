// seed crea tiendas, productos y el inventario inicial de cada par producto/tienda.
//
// Uso: go run ./cmd/seed <num_products> <num_stores>
// Usa la misma configuración que la API (STORAGE_DRIVER, DB_*). Cada celda recibe una
// entrada IN de 10 a 100 unidades con min_stock en {5, 10, 15, 20}.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

var (
	cities     = []string{"Bogotá", "Medellín", "Cali", "Barranquilla", "Cartagena", "Bucaramanga", "Pereira", "Manizales"}
	categories = []string{"Electrónica", "Joyería", "Ropa hombre", "Ropa mujer", "Hogar", "Bebidas"}
	adjectives = []string{"Clásico", "Premium", "Compacto", "Ligero", "Deluxe", "Básico", "Pro", "Eco"}
	nouns      = []string{"Audífonos", "Camiseta", "Anillo", "Chaqueta", "Lámpara", "Termo", "Mochila", "Reloj"}
	minStocks  = []int{5, 10, 15, 20}
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "uso: seed <num_products> <num_stores>")
		os.Exit(2)
	}
	numProducts, err1 := strconv.Atoi(os.Args[1])
	numStores, err2 := strconv.Atoi(os.Args[2])
	if err1 != nil || err2 != nil || numProducts < 0 || numStores < 0 {
		fmt.Fprintln(os.Stderr, "num_products y num_stores deben ser enteros no negativos")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatal().Str("storage", cfg.Storage.Driver).Msg("seed solo tiene sentido contra PostgreSQL")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewInventoryRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	productUC := usecase.NewProductUseCase(productRepo, stockRepo, movementRepo)
	storeUC := usecase.NewStoreUseCase(postgres.NewStoreRepository(pool))
	engine := inventory.NewTransferEngine(postgres.NewTxRunner(pool), nil, inventory.EngineConfig{
		MaxAttempts:  cfg.Transfer.MaxAttempts,
		Timeout:      cfg.Transfer.Timeout,
		RetryBackoff: cfg.Transfer.RetryBackoff,
	}, logger.Nop().Zerolog())

	storeIDs := make([]string, 0, numStores)
	for i := 0; i < numStores; i++ {
		city := cities[rand.IntN(len(cities))]
		s, err := storeUC.Create(ctx, dto.CreateStoreRequest{
			Name:    fmt.Sprintf("Tienda %s %04d", city, rand.IntN(10000)),
			Address: fmt.Sprintf("Calle %d # %d-%d", rand.IntN(150)+1, rand.IntN(100)+1, rand.IntN(99)+1),
			City:    city,
		})
		if err != nil {
			log.Fatal().Err(err).Int("store", i).Msg("crear tienda")
		}
		storeIDs = append(storeIDs, s.ID)
	}
	log.Info().Int("stores", len(storeIDs)).Msg("tiendas creadas")

	productIDs := make([]string, 0, numProducts)
	for i := 0; i < numProducts; i++ {
		p, err := productUC.Create(ctx, dto.CreateProductRequest{
			Name:        fmt.Sprintf("%s %s %d", nouns[rand.IntN(len(nouns))], adjectives[rand.IntN(len(adjectives))], i+1),
			Description: "Producto de prueba generado por seed",
			Category:    categories[rand.IntN(len(categories))],
			Price:       decimal.NewFromInt(int64(rand.IntN(500000) + 1000)).Shift(-2),
		})
		if err != nil {
			log.Fatal().Err(err).Int("product", i).Msg("crear producto")
		}
		productIDs = append(productIDs, p.ID)
	}
	log.Info().Int("products", len(productIDs)).Msg("productos creados")

	cells := 0
	for _, storeID := range storeIDs {
		for _, productID := range productIDs {
			minStock := minStocks[rand.IntN(len(minStocks))]
			_, err := engine.Receive(ctx, inventory.AdjustmentInput{
				ProductID: productID,
				StoreID:   storeID,
				Quantity:  rand.IntN(91) + 10,
				MinStock:  &minStock,
			})
			if err != nil {
				log.Fatal().Err(err).Str("product_id", productID).Str("store_id", storeID).Msg("entrada inicial")
			}
			cells++
		}
	}
	log.Info().Int("cells", cells).Msg("inventario inicial creado")
}
