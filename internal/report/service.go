// Package report is the rendering entry point. It delegates to the base
// rendering pipeline and, for the sales-order report only, enriches the
// result by appending the order's product PDF attachments.
//
// The enrichment path is strictly fail-open: whatever goes wrong past
// the base render, the caller still gets a valid PDF (the original
// bytes). Only a base-pipeline failure propagates.
package report

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderdocs/internal/render"
	"orderdocs/internal/types"
)

// AttachmentResolver finds the product attachments for an order.
type AttachmentResolver interface {
	ProductAttachments(ctx context.Context, orderID int64) []types.Attachment
}

// Merger appends validated attachments to a base document. ok reports
// whether anything was appended; err is a library-level merge failure.
type Merger interface {
	Append(base []byte, atts []types.Attachment) (merged []byte, ok bool, err error)
}

// Service wires the base renderer, resolver and merger together.
type Service struct {
	base     render.Renderer
	resolver AttachmentResolver
	merger   Merger
	target   types.ReportRef
	log      *zap.Logger
}

// NewService returns a report service. target names the one report that
// gets attachment enrichment; everything else passes through untouched.
func NewService(base render.Renderer, resolver AttachmentResolver, merger Merger, target types.ReportRef, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		base:     base,
		resolver: resolver,
		merger:   merger,
		target:   target,
		log:      log,
	}
}

// RenderPDF renders the report and returns the bytes and format tag.
// Enrichment applies only when the report matches the configured target,
// at least one document id was requested, and the base render produced
// bytes. Only the first document id drives attachment resolution.
func (s *Service) RenderPDF(ctx context.Context, ref types.ReportRef, docIDs []int64, data map[string]interface{}) ([]byte, string, error) {
	base, format, err := s.base.Render(ctx, ref, docIDs, data)
	if err != nil {
		return nil, "", err
	}

	if !s.enrichable(ref, docIDs, base) {
		return base, format, nil
	}

	log := s.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("order_id", docIDs[0]))

	atts := s.resolver.ProductAttachments(ctx, docIDs[0])
	if len(atts) == 0 {
		log.Debug("no product attachments found")
		return base, format, nil
	}
	log.Info("merging product attachments", zap.Int("candidates", len(atts)))

	merged, ok, err := s.merger.Append(base, atts)
	if err != nil {
		// Merge-library failure aborts enrichment, never the report.
		log.Error("attachment merge aborted, returning original report", zap.Error(err))
		return base, format, nil
	}
	if !ok {
		log.Info("no attachments qualified for merge")
		return base, format, nil
	}

	return merged, format, nil
}

// enrichable checks the three gates for attachment enrichment.
func (s *Service) enrichable(ref types.ReportRef, docIDs []int64, base []byte) bool {
	return ref.Name == s.target.Name &&
		ref.Model == s.target.Model &&
		len(docIDs) > 0 &&
		len(base) > 0
}
