// Package types holds the shared domain records for orderdocs.
// Everything here is read-only from the enrichment path's point of view:
// records are loaded from the store, inspected, and discarded.
package types

// ReportRef identifies which report template a render call targets.
type ReportRef struct {
	// Name is the technical report name, e.g. "sale.report_saleorder".
	Name string
	// Model is the business model the report renders, e.g. "sale.order".
	Model string
}

// SaleOrder is a sales order with its line items.
type SaleOrder struct {
	ID       int64
	Name     string
	Customer string
	Lines    []OrderLine
}

// OrderLine is a single line item on a sales order.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  float64
	UnitPrice float64
}

// Product is a sellable variant of a product template.
type Product struct {
	ID         int64
	TemplateID int64
	Name       string
}

// ProductTemplate is the shared definition behind one or more product
// variants. Attachments hang off the template, not the variant, so two
// variants of the same template share the same document set.
type ProductTemplate struct {
	ID   int64
	Name string
}

// PayloadKind tags how an attachment's payload is stored.
type PayloadKind int

const (
	// PayloadBase64 means the payload column holds base64 text.
	PayloadBase64 PayloadKind = iota
	// PayloadRaw means the payload column holds raw bytes.
	PayloadRaw
)

// Attachment is a stored file tied to a business entity. Payload shape
// varies with the record's history: newer rows are raw bytes, older ones
// base64 text, and some are double-encoded. Normalization happens at
// merge time, not here.
type Attachment struct {
	ID         int64
	Name       string
	OwnerModel string
	OwnerID    int64
	MimeType   string
	Kind       PayloadKind
	Payload    []byte
}

// MimeTypePDF is the only mime type the enrichment path cares about.
const MimeTypePDF = "application/pdf"

// ProductTemplateModel is the owner model under which product documents
// are filed in the attachment store.
const ProductTemplateModel = "product.template"
