// Package pdfmerge appends validated PDF attachments to a rendered base
// report. Validation is ordered and fail-skip: a bad attachment is
// logged and dropped, never allowed to corrupt or block the report.
package pdfmerge

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"orderdocs/internal/types"
)

// Merger concatenates PDF byte buffers via pdfcpu. Relaxed validation
// mirrors what the attachments actually look like in the wild.
type Merger struct {
	conf *model.Configuration
	log  *zap.Logger
}

// New returns a Merger.
func New(log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Merger{conf: conf, log: log}
}

// Append validates each attachment in supplied order and appends the
// accepted ones after the base document.
//
// Returns (merged, true, nil) when at least one attachment was appended,
// (nil, false, nil) when none qualified (caller keeps the base bytes),
// and (nil, false, err) only when the merge library itself failed on the
// accepted set.
func (m *Merger) Append(base []byte, atts []types.Attachment) ([]byte, bool, error) {
	buffers := []io.ReadSeeker{bytes.NewReader(base)}

	appended := 0
	for _, att := range atts {
		v := m.Validate(att)
		if !v.OK {
			m.log.Warn("attachment skipped",
				zap.String("attachment", att.Name),
				zap.String("reason", string(v.Reason)))
			continue
		}
		buffers = append(buffers, bytes.NewReader(v.Data))
		appended++
		m.log.Info("attachment accepted",
			zap.String("attachment", att.Name),
			zap.Int("pages", v.Pages))
	}

	if appended == 0 {
		return nil, false, nil
	}

	var out bytes.Buffer
	if err := api.MergeRaw(buffers, &out, false, m.conf); err != nil {
		return nil, false, fmt.Errorf("pdf merge failed: %w", err)
	}

	m.log.Info("report merged", zap.Int("attachments", appended))
	return out.Bytes(), true, nil
}

// PageCount parses a PDF buffer and reports its page count. Used by the
// CLI and tests to probe documents without going through Validate.
func (m *Merger) PageCount(data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), m.conf)
	if err != nil {
		return 0, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}
