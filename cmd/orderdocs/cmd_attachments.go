package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"orderdocs/internal/pdfmerge"
	"orderdocs/internal/resolver"
)

// attachmentsCmd shows what the resolver would feed into the merge for
// an order, with each attachment's validation verdict.
var attachmentsCmd = &cobra.Command{
	Use:   "attachments [order-id]",
	Short: "List the product PDF attachments resolved for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		res := resolver.New(st, logger.Named("resolver"))
		merger := pdfmerge.New(logger.Named("merge"))

		atts := res.ProductAttachments(cmd.Context(), orderID)
		if len(atts) == 0 {
			fmt.Println("no product PDF attachments found")
			return nil
		}

		for _, att := range atts {
			v := merger.Validate(att)
			if v.OK {
				fmt.Printf("  #%-4d %-30s ok (%d pages)\n", att.ID, att.Name, v.Pages)
			} else {
				fmt.Printf("  #%-4d %-30s skipped: %s\n", att.ID, att.Name, v.Reason)
			}
		}
		return nil
	},
}
