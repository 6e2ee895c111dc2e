package pdfmerge

import (
	"encoding/base64"

	"orderdocs/internal/types"
)

// normalizePayload converts an attachment payload to raw PDF bytes.
//
// Attachment rows come from varied historical sources: base64 text,
// raw bytes, and raw bytes that were base64-encoded a second time on
// import. Base64 decoding is attempted first; for raw-tagged payloads a
// failed decode falls back to using the bytes as-is. A base64-tagged
// payload that does not decode has no usable raw form and is rejected.
func normalizePayload(att types.Attachment) ([]byte, bool) {
	data := att.Payload
	if len(data) == 0 {
		return nil, false
	}

	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if err == nil {
		return decoded, true
	}

	if att.Kind == types.PayloadRaw {
		return data, true
	}
	return nil, false
}
