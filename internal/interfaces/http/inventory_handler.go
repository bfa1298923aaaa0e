package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// InventoryHandler maneja traslados, movimientos y alertas del ledger.
type InventoryHandler struct {
	engine *inventory.TransferEngine
	query  *inventory.QueryUseCase
	log    zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.TransferEngine, query *inventory.QueryUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{engine: engine, query: query, log: log}
}

// Transfer godoc
// @Summary      Trasladar stock entre tiendas
// @Description  Debita el origen, acredita el destino y registra un movimiento TRANSFER en una sola unidad de trabajo.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, source_store_id, target_store_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.engine.Transfer(c.UserContext(), inventory.TransferInput{
		ProductID:     in.ProductID,
		SourceStoreID: in.SourceStoreID,
		TargetStoreID: in.TargetStoreID,
		Quantity:      in.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "type IN/OUT/TRANSFER, product_id, tiendas y quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.engine.RegisterMovement(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Description  Más recientes primero. store_id coincide con origen o destino.
// @Tags         inventory
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        store_id    query  string  false  "Filtrar por tienda"
// @Param        type        query  string  false  "IN, OUT o TRANSFER"
// @Param        limit       query  int     false  "Tamaño de página (default 10, máx. 100)"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		StoreID:   c.Query("store_id"),
		Type:      c.Query("type"),
	}
	page := pageFromQuery(c)
	list, err := h.query.ListMovements(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.MovementListResponse{
		Items:  make([]dto.MovementResponse, 0, len(list)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, m := range list {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return c.JSON(out)
}

// SetMinStock godoc
// @Summary      Fijar umbral de stock mínimo
// @Description  Crea la celda con cantidad 0 si no existe. No registra movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetMinStockRequest  true  "product_id, store_id, min_stock"
// @Success      200   {object}  dto.InventoryCellResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/min-stock [put]
func (h *InventoryHandler) SetMinStock(c *fiber.Ctx) error {
	var in dto.SetMinStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cell, err := h.engine.SetMinStock(c.UserContext(), in.ProductID, in.StoreID, in.MinStock)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toCellResponse(cell))
}

// Alerts godoc
// @Summary      Celdas en bajo stock
// @Description  Celdas con quantity estrictamente menor que min_stock.
// @Tags         inventory
// @Produce      json
// @Success      200  {array}  dto.InventoryCellResponse
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	cells, err := h.query.ListLowStock(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toCellResponses(cells))
}

// AlertsReport godoc
// @Summary      Reporte PDF de bajo stock
// @Tags         inventory
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/report.pdf [get]
func (h *InventoryHandler) AlertsReport(c *fiber.Ctx) error {
	pdf, err := h.query.LowStockReport(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="bajo-stock.pdf"`)
	return c.Send(pdf)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		SourceStoreID: optional(m.SourceStoreID),
		TargetStoreID: optional(m.TargetStoreID),
		Quantity:      m.Quantity,
		Type:          m.Type,
		Timestamp:     m.Timestamp,
	}
}

func toCellResponse(c *entity.InventoryCell) dto.InventoryCellResponse {
	return dto.InventoryCellResponse{
		ProductID: c.ProductID,
		StoreID:   c.StoreID,
		Quantity:  c.Quantity,
		MinStock:  c.MinStock,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCellResponses(cells []*entity.InventoryCell) []dto.InventoryCellResponse {
	out := make([]dto.InventoryCellResponse, 0, len(cells))
	for _, c := range cells {
		out = append(out, toCellResponse(c))
	}
	return out
}
