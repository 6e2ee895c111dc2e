// Package resolver finds the PDF attachments linked to a sales order's
// products. The traversal is order -> line items -> products -> product
// templates -> attachments; templates are the deduplication key because
// product variants share their documents at the template level.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"orderdocs/internal/types"
)

// Store is the slice of the backing store the resolver reads.
type Store interface {
	Order(ctx context.Context, id int64) (*types.SaleOrder, error)
	ProductTemplateIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error)
	SearchAttachments(ctx context.Context, ownerModel string, ownerIDs []int64, mimeType string) ([]types.Attachment, error)
}

// Resolver resolves product attachments for orders.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// New returns a Resolver backed by the given store.
func New(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// ProductAttachments returns the PDF attachments linked to the order's
// product templates, in store query order. Lookup failures are logged
// and yield an empty result; enrichment is best-effort and must never
// fail the report for a storage hiccup.
func (r *Resolver) ProductAttachments(ctx context.Context, orderID int64) []types.Attachment {
	order, err := r.store.Order(ctx, orderID)
	if err != nil {
		r.log.Warn("attachment lookup: order not loadable",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil
	}
	if len(order.Lines) == 0 {
		return nil
	}

	productIDs := dedupe(lineProductIDs(order.Lines))

	templates, err := r.store.ProductTemplateIDs(ctx, productIDs)
	if err != nil {
		r.log.Warn("attachment lookup: product resolution failed",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil
	}

	var templateIDs []int64
	for _, pid := range productIDs {
		if tid, ok := templates[pid]; ok {
			templateIDs = append(templateIDs, tid)
		}
	}
	templateIDs = dedupe(templateIDs)
	if len(templateIDs) == 0 {
		return nil
	}

	atts, err := r.store.SearchAttachments(ctx, types.ProductTemplateModel, templateIDs, types.MimeTypePDF)
	if err != nil {
		r.log.Warn("attachment lookup: search failed",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil
	}

	r.log.Debug("attachments resolved",
		zap.Int64("order_id", orderID),
		zap.Int("templates", len(templateIDs)),
		zap.Int("attachments", len(atts)))
	return atts
}

func lineProductIDs(lines []types.OrderLine) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// dedupe removes duplicates preserving first occurrence.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
