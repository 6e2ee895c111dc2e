package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdocs/internal/pdfmerge"
	"orderdocs/internal/render"
	"orderdocs/internal/resolver"
	"orderdocs/internal/store"
	"orderdocs/internal/types"
)

var target = types.ReportRef{Name: "sale.report_saleorder", Model: "sale.order"}

type stubRenderer struct {
	data   []byte
	format string
	err    error
}

func (s *stubRenderer) Render(ctx context.Context, ref types.ReportRef, docIDs []int64, data map[string]interface{}) ([]byte, string, error) {
	return s.data, s.format, s.err
}

type stubResolver struct {
	atts   []types.Attachment
	called bool
}

func (s *stubResolver) ProductAttachments(ctx context.Context, orderID int64) []types.Attachment {
	s.called = true
	return s.atts
}

type stubMerger struct {
	merged []byte
	ok     bool
	err    error
}

func (s *stubMerger) Append(base []byte, atts []types.Attachment) ([]byte, bool, error) {
	return s.merged, s.ok, s.err
}

func onePagePDF(lines ...string) []byte {
	b := render.NewBuilder()
	b.AddTextPage(lines)
	return b.Bytes()
}

func TestRenderPDF_BaseRendererErrorPropagates(t *testing.T) {
	boom := errors.New("template failure")
	svc := NewService(&stubRenderer{err: boom}, &stubResolver{}, &stubMerger{}, target, nil)

	_, _, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRenderPDF_DescriptorMismatchPassesThrough(t *testing.T) {
	base := []byte("%PDF base")
	res := &stubResolver{atts: []types.Attachment{{Name: "would-merge.pdf"}}}
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, res, &stubMerger{}, target, nil)

	other := types.ReportRef{Name: "sale.report_proforma", Model: "sale.order"}
	got, format, err := svc.RenderPDF(context.Background(), other, []int64{1}, nil)

	require.NoError(t, err)
	assert.Equal(t, base, got)
	assert.Equal(t, "pdf", format)
	assert.False(t, res.called, "resolver must not run for non-target reports")
}

func TestRenderPDF_NoDocIDsPassesThrough(t *testing.T) {
	base := []byte("%PDF base")
	res := &stubResolver{atts: []types.Attachment{{Name: "a.pdf"}}}
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, res, &stubMerger{}, target, nil)

	got, _, err := svc.RenderPDF(context.Background(), target, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, base, got)
	assert.False(t, res.called)
}

func TestRenderPDF_EmptyBasePassesThrough(t *testing.T) {
	res := &stubResolver{atts: []types.Attachment{{Name: "a.pdf"}}}
	svc := NewService(&stubRenderer{data: nil, format: "pdf"}, res, &stubMerger{}, target, nil)

	got, _, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, res.called)
}

func TestRenderPDF_NoAttachmentsKeepsOriginal(t *testing.T) {
	base := []byte("%PDF base")
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, &stubResolver{}, &stubMerger{}, target, nil)

	got, _, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)

	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestRenderPDF_MergerFailureFallsBackToOriginal(t *testing.T) {
	base := []byte("%PDF base")
	res := &stubResolver{atts: []types.Attachment{{Name: "a.pdf"}}}
	merger := &stubMerger{err: errors.New("merge library exploded")}
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, res, merger, target, nil)

	got, format, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)

	require.NoError(t, err, "merge failure must not escape")
	assert.Equal(t, base, got)
	assert.Equal(t, "pdf", format)
}

func TestRenderPDF_NothingQualifiedKeepsOriginal(t *testing.T) {
	base := []byte("%PDF base")
	res := &stubResolver{atts: []types.Attachment{{Name: "broken.pdf"}}}
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, res, &stubMerger{ok: false}, target, nil)

	got, _, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)

	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestRenderPDF_MergedResultReturned(t *testing.T) {
	base := []byte("%PDF base")
	merged := []byte("%PDF merged")
	res := &stubResolver{atts: []types.Attachment{{Name: "a.pdf"}}}
	svc := NewService(&stubRenderer{data: base, format: "pdf"}, res, &stubMerger{merged: merged, ok: true}, target, nil)

	got, format, err := svc.RenderPDF(context.Background(), target, []int64{1}, nil)

	require.NoError(t, err)
	assert.Equal(t, merged, got)
	assert.Equal(t, "pdf", format)
}

// Full pipeline over a real store, renderer, resolver and merger.
func TestRenderPDF_EndToEnd(t *testing.T) {
	st, err := store.New(":memory:", nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	tmpl, err := st.InsertTemplate(ctx, "Pump")
	require.NoError(t, err)
	p1, err := st.InsertProduct(ctx, tmpl, "Pump 230V")
	require.NoError(t, err)
	p2, err := st.InsertProduct(ctx, tmpl, "Pump 110V")
	require.NoError(t, err)
	orderID, err := st.InsertOrder(ctx, "SO0100", "Acme")
	require.NoError(t, err)
	_, err = st.InsertOrderLine(ctx, orderID, p1, 1, 10)
	require.NoError(t, err)
	_, err = st.InsertOrderLine(ctx, orderID, p2, 1, 10)
	require.NoError(t, err)

	goodPDF := onePagePDF("Datasheet")
	_, err = st.InsertAttachment(ctx, types.Attachment{
		Name: "datasheet.pdf", OwnerModel: types.ProductTemplateModel,
		OwnerID: tmpl, MimeType: types.MimeTypePDF,
		Kind: types.PayloadRaw, Payload: goodPDF,
	})
	require.NoError(t, err)
	_, err = st.InsertAttachment(ctx, types.Attachment{
		Name: "corrupt.pdf", OwnerModel: types.ProductTemplateModel,
		OwnerID: tmpl, MimeType: types.MimeTypePDF,
		Kind: types.PayloadRaw, Payload: []byte("%PDF-1.4 nothing else"),
	})
	require.NoError(t, err)

	merger := pdfmerge.New(nil)
	svc := NewService(
		render.NewOrderRenderer(st, nil),
		resolver.New(st, nil),
		merger,
		target,
		nil,
	)

	got, format, err := svc.RenderPDF(ctx, target, []int64{orderID}, nil)
	require.NoError(t, err)
	assert.Equal(t, render.FormatPDF, format)

	// One base page plus the single valid attachment page; the corrupt
	// attachment is skipped without failing the render.
	pages, err := merger.PageCount(got)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}
