package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdocs/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNew_SchemaCreated(t *testing.T) {
	st := newTestStore(t)

	for _, table := range []string{"orders", "order_lines", "products", "product_templates", "attachments"} {
		assert.True(t, tableExists(st.db, table), "missing table %s", table)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tmpl, err := st.InsertTemplate(ctx, "Widget")
	require.NoError(t, err)
	prod, err := st.InsertProduct(ctx, tmpl, "Widget A")
	require.NoError(t, err)

	orderID, err := st.InsertOrder(ctx, "SO0042", "Initech")
	require.NoError(t, err)
	_, err = st.InsertOrderLine(ctx, orderID, prod, 3, 9.5)
	require.NoError(t, err)
	_, err = st.InsertOrderLine(ctx, orderID, prod, 1, 12)
	require.NoError(t, err)

	order, err := st.Order(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "SO0042", order.Name)
	assert.Equal(t, "Initech", order.Customer)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, prod, order.Lines[0].ProductID)
	assert.Equal(t, 3.0, order.Lines[0].Quantity)
}

func TestOrder_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Order(context.Background(), 404)
	assert.Error(t, err)
}

func TestProductTemplateIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t1, err := st.InsertTemplate(ctx, "Pump")
	require.NoError(t, err)
	t2, err := st.InsertTemplate(ctx, "Valve")
	require.NoError(t, err)
	p1, err := st.InsertProduct(ctx, t1, "Pump 230V")
	require.NoError(t, err)
	p2, err := st.InsertProduct(ctx, t1, "Pump 110V")
	require.NoError(t, err)
	p3, err := st.InsertProduct(ctx, t2, "Valve DN50")
	require.NoError(t, err)

	got, err := st.ProductTemplateIDs(ctx, []int64{p1, p2, p3, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{p1: t1, p2: t1, p3: t2}, got)

	empty, err := st.ProductTemplateIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchAttachments_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mk := func(name, model string, owner int64, mime string) int64 {
		id, err := st.InsertAttachment(ctx, types.Attachment{
			Name: name, OwnerModel: model, OwnerID: owner,
			MimeType: mime, Kind: types.PayloadRaw, Payload: []byte("%PDF stub"),
		})
		require.NoError(t, err)
		return id
	}

	a1 := mk("doc1.pdf", types.ProductTemplateModel, 1, types.MimeTypePDF)
	mk("photo.png", types.ProductTemplateModel, 1, "image/png")
	mk("other-model.pdf", "res.partner", 1, types.MimeTypePDF)
	mk("other-owner.pdf", types.ProductTemplateModel, 2, types.MimeTypePDF)
	a5 := mk("doc2.pdf", types.ProductTemplateModel, 1, types.MimeTypePDF)

	got, err := st.SearchAttachments(ctx, types.ProductTemplateModel, []int64{1}, types.MimeTypePDF)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Primary-key order.
	assert.Equal(t, a1, got[0].ID)
	assert.Equal(t, a5, got[1].ID)

	none, err := st.SearchAttachments(ctx, types.ProductTemplateModel, nil, types.MimeTypePDF)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchAttachments_PayloadKind(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.InsertAttachment(ctx, types.Attachment{
		Name: "b64.pdf", OwnerModel: types.ProductTemplateModel, OwnerID: 9,
		MimeType: types.MimeTypePDF, Kind: types.PayloadBase64, Payload: []byte("JVBERg=="),
	})
	require.NoError(t, err)
	_, err = st.InsertAttachment(ctx, types.Attachment{
		Name: "raw.pdf", OwnerModel: types.ProductTemplateModel, OwnerID: 9,
		MimeType: types.MimeTypePDF, Kind: types.PayloadRaw, Payload: []byte("%PDF-"),
	})
	require.NoError(t, err)

	got, err := st.SearchAttachments(ctx, types.ProductTemplateModel, []int64{9}, types.MimeTypePDF)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.PayloadBase64, got[0].Kind)
	assert.Equal(t, types.PayloadRaw, got[1].Kind)
}

// Databases created before the checksum/customer columns existed must
// come up clean through the add-column migrations.
func TestMigrations_UpgradeOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		owner_model TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		encoding TEXT NOT NULL DEFAULT 'raw',
		payload BLOB
	)`)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	st, err := New(path, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.True(t, columnExists(st.db, "attachments", "checksum"))
	assert.True(t, columnExists(st.db, "orders", "customer"))

	// And the upgraded store still works.
	id, err := st.InsertOrder(context.Background(), "SO0001", "Acme")
	require.NoError(t, err)
	order, err := st.Order(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", order.Customer)
}
