package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/Simplici0/pricepilot/internal/pricing"
)

// WriteText renders q as plain text with thousands separators.
func WriteText(w io.Writer, q pricing.Quote) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s: %s\n", LabelProjectName, q.ProjectName)
	fmt.Fprintf(bw, "%s: %s\n", LabelClientName, q.ClientName)
	fmt.Fprintf(bw, "%s: %s\n", LabelQuoteDate, q.Date)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "項目:")
	for i, it := range q.Items {
		fmt.Fprintf(bw, "%d. %s | %s h | %s / %s | %s/h | %s\n",
			i+1,
			it.Type,
			humanize.Ftoa(it.Hours),
			it.Complexity,
			it.Risk,
			humanize.Comma(it.AdjustedRate),
			humanize.Comma(it.Subtotal),
		)
		if it.Description != "" {
			fmt.Fprintf(bw, "   %s\n", it.Description)
		}
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "%s: %s\n", LabelDevelopmentSubtotal, humanize.Comma(q.DevelopmentSubtotal))
	for _, extra := range q.ExtrasWithSubtotal() {
		fmt.Fprintf(bw, "%s: %s\n", extra.Label, humanize.Comma(extra.Amount))
	}
	fmt.Fprintf(bw, "%s: %s\n", LabelPreTax, humanize.Comma(q.PreTax))
	fmt.Fprintf(bw, "%s: %s\n", LabelTax, humanize.Comma(q.Tax))
	fmt.Fprintf(bw, "%s: %s\n", LabelGrandTotal, humanize.Comma(q.GrandTotal))

	return bw.Flush()
}
