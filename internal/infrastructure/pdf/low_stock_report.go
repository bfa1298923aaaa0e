// Package pdf genera el reporte de alertas de bajo stock con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación + total de alertas    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tienda | Ciudad | Producto | SKU | Cant. | Mín. | Faltan │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: criterio de alerta                                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
)

var _ inventory.LowStockReportGenerator = (*LowStockReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorAlert   = &props.Color{Red: 176, Green: 32, Blue: 32}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// LowStockReportGenerator implementa inventory.LowStockReportGenerator usando Maroto v2.
type LowStockReportGenerator struct {
	title string
}

// NewLowStockReportGenerator construye el generador; appName aparece como autor del documento.
func NewLowStockReportGenerator(appName string) *LowStockReportGenerator {
	return &LowStockReportGenerator{title: appName}
}

// GenerateLowStockReport genera el PDF y devuelve sus bytes. Sin alertas se genera igual con la tabla vacía.
func (g *LowStockReportGenerator) GenerateLowStockReport(lines []dto.LowStockLine, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Alertas de bajo stock", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(generatedAt, len(lines)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(col.New(12).Add(text.New(
		"Una celda está en alerta cuando su cantidad es estrictamente menor que su stock mínimo.",
		props.Text{Size: 7, Top: 2, Color: colorGray},
	))))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(generatedAt time.Time, total int) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("ALERTAS DE BAJO STOCK", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("%d alertas", total), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 4, Color: colorAlert,
			}),
		),
	)
}

// tableHeaderRow cabecera con fondo de la paleta.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Tienda", 3, align.Left),
		h("Ciudad", 2, align.Left),
		h("Producto", 3, align.Left),
		h("SKU", 1, align.Left),
		h("Cant.", 1, align.Right),
		h("Mín.", 1, align.Right),
		h("Faltan", 1, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableRows(lines []dto.LowStockLine) []core.Row {
	cell := func(value string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			cell(nonEmpty(l.StoreName, l.StoreID), 3, align.Left),
			cell(nonEmpty(l.City, "-"), 2, align.Left),
			cell(nonEmpty(l.ProductName, l.ProductID), 3, align.Left),
			cell(nonEmpty(l.SKU, "-"), 1, align.Left),
			cell(fmt.Sprint(l.Quantity), 1, align.Right),
			cell(fmt.Sprint(l.MinStock), 1, align.Right),
			col.New(1).Add(text.New(fmt.Sprint(l.MinStock-l.Quantity), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1, Color: colorAlert,
			})),
		))
	}
	return result
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
