// Package render produces the base sales-order report PDF. The report
// service treats it as a black box: bytes in, bytes and a format tag out.
package render

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"orderdocs/internal/types"
)

// FormatPDF is the format tag the rendering pipeline returns for PDFs.
const FormatPDF = "pdf"

// linesPerPage bounds how many text rows fit before the renderer breaks
// to a new page.
const linesPerPage = 48

// Renderer is the base report rendering pipeline.
type Renderer interface {
	// Render returns the rendered report bytes and a format tag.
	Render(ctx context.Context, ref types.ReportRef, docIDs []int64, data map[string]interface{}) ([]byte, string, error)
}

// OrderLoader is the slice of the store the renderer needs.
type OrderLoader interface {
	Order(ctx context.Context, id int64) (*types.SaleOrder, error)
}

// OrderRenderer renders a plain one-column sales-order summary. It
// stands in for the host application's template pipeline so the CLI
// works end to end without one.
type OrderRenderer struct {
	orders OrderLoader
	log    *zap.Logger
}

// NewOrderRenderer returns a renderer backed by the given order loader.
func NewOrderRenderer(orders OrderLoader, log *zap.Logger) *OrderRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderRenderer{orders: orders, log: log}
}

// Render renders each requested order as one or more pages and returns
// the assembled PDF. Unknown document ids fail the render; this is the
// base pipeline, not the fail-open enrichment path.
func (r *OrderRenderer) Render(ctx context.Context, ref types.ReportRef, docIDs []int64, data map[string]interface{}) ([]byte, string, error) {
	if len(docIDs) == 0 {
		return nil, "", fmt.Errorf("no document ids to render")
	}

	b := NewBuilder()
	for _, id := range docIDs {
		order, err := r.orders.Order(ctx, id)
		if err != nil {
			return nil, "", fmt.Errorf("render %s: %w", ref.Name, err)
		}
		for _, page := range paginate(orderLines(order)) {
			b.AddTextPage(page)
		}
	}

	r.log.Debug("base report rendered",
		zap.String("report", ref.Name),
		zap.Int("documents", len(docIDs)),
		zap.Int("pages", b.PageCount()))

	return b.Bytes(), FormatPDF, nil
}

// orderLines flattens an order into display rows.
func orderLines(order *types.SaleOrder) []string {
	lines := []string{
		fmt.Sprintf("Sales Order %s", order.Name),
		fmt.Sprintf("Customer: %s", order.Customer),
		"",
	}

	total := 0.0
	for _, l := range order.Lines {
		amount := l.Quantity * l.UnitPrice
		total += amount
		lines = append(lines, fmt.Sprintf("  product #%d   qty %.2f   unit %.2f   amount %.2f",
			l.ProductID, l.Quantity, l.UnitPrice, amount))
	}

	lines = append(lines, "", fmt.Sprintf("Total: %.2f", total))
	return lines
}

// paginate splits rows into page-sized chunks, repeating the first row
// (the title) on continuation pages.
func paginate(rows []string) [][]string {
	if len(rows) <= linesPerPage {
		return [][]string{rows}
	}

	title := rows[0]
	rest := rows[1:]
	perPage := linesPerPage - 1

	var pages [][]string
	for len(rest) > 0 {
		n := perPage
		if len(rest) < n {
			n = len(rest)
		}
		page := append([]string{title}, rest[:n]...)
		pages = append(pages, page)
		rest = rest[n:]
	}
	return pages
}
