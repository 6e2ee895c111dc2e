package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderdocs/internal/render"
	"orderdocs/internal/store"
	"orderdocs/internal/types"
)

// seedCmd populates the database with a demo catalog: one template with
// two variants (so the dedup path is visible), one order covering both,
// a PDF datasheet stored raw, a base64-encoded manual, and a non-PDF
// attachment the resolver must exclude at query time.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the database with demo orders and attachments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		orderID, err := seedDemo(cmd.Context(), st)
		if err != nil {
			return err
		}

		logger.Info("demo data created",
			zap.String("database", cfg.Storage.DatabasePath),
			zap.Int64("order_id", orderID))
		fmt.Printf("seeded demo order %d; try: orderdocs render %d\n", orderID, orderID)
		return nil
	},
}

func seedDemo(ctx context.Context, st *store.Store) (int64, error) {
	tmplID, err := st.InsertTemplate(ctx, "Industrial Pump IP-200")
	if err != nil {
		return 0, err
	}

	p1, err := st.InsertProduct(ctx, tmplID, "IP-200 (230V)")
	if err != nil {
		return 0, err
	}
	p2, err := st.InsertProduct(ctx, tmplID, "IP-200 (110V)")
	if err != nil {
		return 0, err
	}

	orderID, err := st.InsertOrder(ctx, "SO0001", "Acme Waterworks")
	if err != nil {
		return 0, err
	}
	if _, err := st.InsertOrderLine(ctx, orderID, p1, 2, 1450); err != nil {
		return 0, err
	}
	if _, err := st.InsertOrderLine(ctx, orderID, p2, 1, 1480); err != nil {
		return 0, err
	}

	datasheet := demoPDF("IP-200 Datasheet", "Flow rate: 200 l/min", "Head: 32 m")
	manual := demoPDF("IP-200 Installation Manual", "1. Mount the pump.", "2. Connect the piping.")

	seedAtts := []types.Attachment{
		{
			Name:       "ip200-datasheet.pdf",
			OwnerModel: types.ProductTemplateModel,
			OwnerID:    tmplID,
			MimeType:   types.MimeTypePDF,
			Kind:       types.PayloadRaw,
			Payload:    datasheet,
		},
		{
			Name:       "ip200-manual.pdf",
			OwnerModel: types.ProductTemplateModel,
			OwnerID:    tmplID,
			MimeType:   types.MimeTypePDF,
			Kind:       types.PayloadBase64,
			Payload:    []byte(base64.StdEncoding.EncodeToString(manual)),
		},
		{
			// Excluded by the mime-type filter, present to prove it.
			Name:       "ip200-photo.png",
			OwnerModel: types.ProductTemplateModel,
			OwnerID:    tmplID,
			MimeType:   "image/png",
			Kind:       types.PayloadRaw,
			Payload:    []byte{0x89, 'P', 'N', 'G'},
		},
	}
	for _, att := range seedAtts {
		if _, err := st.InsertAttachment(ctx, att); err != nil {
			return 0, err
		}
	}

	return orderID, nil
}

// demoPDF builds a small single-page PDF with the given text rows.
func demoPDF(lines ...string) []byte {
	b := render.NewBuilder()
	b.AddTextPage(lines)
	return b.Bytes()
}
