package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/pricepilot/internal/draft"
	"github.com/Simplici0/pricepilot/internal/export"
	"github.com/Simplici0/pricepilot/internal/pricing"
)

type quoteOptions struct {
	*options
	xlsx bool
	out  string
}

func newQuoteCommand(opts *options) *cobra.Command {
	qo := &quoteOptions{options: opts}

	cmd := &cobra.Command{
		Use:   "quote <draft.json>",
		Short: "Price a quote draft",
		Long: `Price a quote draft saved as JSON and print the result.

With --xlsx the quote is also written as a workbook. The workbook goes to
--out, or to the default export file name in the current directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return qo.run(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&qo.xlsx, "xlsx", false, "write the quote as an XLSX workbook")
	cmd.Flags().StringVarP(&qo.out, "out", "o", "", "workbook output path (implies --xlsx)")
	return cmd
}

func (o *quoteOptions) run(cmd *cobra.Command, draftPath string) error {
	data, err := os.ReadFile(draftPath)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	d, err := draft.Decode(data)
	if err != nil {
		return err
	}

	cfg, err := o.loadRates()
	if err != nil {
		return err
	}

	q, err := d.Price(pricing.NewEngine(nil), cfg)
	if err != nil {
		return err
	}
	o.log.Debug("priced quote", zap.Int("items", len(q.Items)), zap.Int64("grand_total", q.GrandTotal))

	out := cmd.OutOrStdout()
	headerColor.Fprintf(out, "%s / %s\n", q.ProjectName, q.ClientName)

	var text bytes.Buffer
	if err := export.WriteText(&text, q); err != nil {
		return err
	}
	// Highlight the grand total line; everything else is printed as rendered.
	scanner := bufio.NewScanner(&text)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, export.LabelGrandTotal+":") {
			totalColor.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, line)
	}

	if !o.xlsx && o.out == "" {
		return nil
	}

	path := o.out
	if path == "" {
		path = export.FileName(q)
	}
	size, err := writeWorkbook(path, q)
	if err != nil {
		return err
	}
	successColor.Fprintf(out, "✓ wrote %s (%s)\n", path, humanize.Bytes(uint64(size)))
	return nil
}

// writeWorkbook writes q next to path and renames it into place so a failed
// export never leaves a partial workbook behind. It returns the file size.
func writeWorkbook(path string, q pricing.Quote) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quotectl-*.xlsx")
	if err != nil {
		return 0, fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()

	if err := export.WriteXLSX(tmp, q); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("stat workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close workbook: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("move workbook into place: %w", err)
	}
	return info.Size(), nil
}
