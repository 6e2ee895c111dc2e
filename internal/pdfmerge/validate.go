package pdfmerge

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"orderdocs/internal/types"
)

// pdfSignature is the mandatory first four bytes of a PDF file.
var pdfSignature = []byte("%PDF")

// SkipReason names why an attachment was not appended. Every rejection
// path has its own value so skips stay visible in logs and tests.
type SkipReason string

const (
	// SkipNone means the attachment passed validation.
	SkipNone SkipReason = ""
	// SkipEmptyPayload: the payload is absent or zero-length.
	SkipEmptyPayload SkipReason = "empty_payload"
	// SkipUndecodable: base64-tagged payload that does not decode.
	SkipUndecodable SkipReason = "undecodable_payload"
	// SkipNoSignature: decoded payload shorter than four bytes or not
	// starting with %PDF.
	SkipNoSignature SkipReason = "missing_pdf_signature"
	// SkipUnparseable: the PDF reader rejected the document structure.
	SkipUnparseable SkipReason = "unparseable"
	// SkipZeroPages: structurally fine but contains no pages.
	SkipZeroPages SkipReason = "zero_pages"
)

// Verdict is the outcome of validating one attachment.
type Verdict struct {
	OK     bool
	Reason SkipReason
	// Data is the normalized raw PDF bytes; set only when OK.
	Data []byte
	// Pages is the attachment's page count; set only when OK.
	Pages int
}

func skip(reason SkipReason) Verdict {
	return Verdict{Reason: reason}
}

// Validate runs the full acceptance chain for one attachment: payload
// present, decodable, carries the %PDF signature, parses, and has at
// least one page. It never returns an error; a bad attachment is a
// Verdict, not a failure.
func (m *Merger) Validate(att types.Attachment) Verdict {
	if len(att.Payload) == 0 {
		return skip(SkipEmptyPayload)
	}

	data, ok := normalizePayload(att)
	if !ok {
		return skip(SkipUndecodable)
	}

	if len(data) < len(pdfSignature) || !bytes.HasPrefix(data, pdfSignature) {
		return skip(SkipNoSignature)
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), m.conf)
	if err != nil {
		return skip(SkipUnparseable)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return skip(SkipUnparseable)
	}
	if ctx.PageCount == 0 {
		return skip(SkipZeroPages)
	}

	return Verdict{OK: true, Data: data, Pages: ctx.PageCount}
}
