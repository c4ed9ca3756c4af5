// Package export renders priced quotes as spreadsheets and plain text.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
	"github.com/Simplici0/pricepilot/internal/pricing"
)

// Sheet names and labels of the exported workbook.
const (
	SummarySheet = "摘要"
	DetailSheet  = "詳細項目"

	LabelProjectName         = "專案名稱"
	LabelClientName          = "客戶名稱"
	LabelQuoteDate           = "報價日期"
	LabelDevelopmentSubtotal = "開發小計"
	LabelPreTax              = "稅前總計"
	LabelTax                 = "營業稅"
	LabelGrandTotal          = "含稅總計"
)

// DetailHeader is the first row of the detail sheet.
var DetailHeader = []string{"任務類型", "工時", "複雜度", "風險等級", "基礎時薪", "調整後時薪", "小計", "描述"}

// FileName returns the default export file name for q.
func FileName(q pricing.Quote) string {
	project := q.ProjectName
	if project == "" {
		project = "project"
	}
	project = strings.NewReplacer("/", "_", "\\", "_", "\"", "_").Replace(project)
	return fmt.Sprintf("quote_%s_%s.xlsx", project, q.Date)
}

// SummaryRows returns the key/value rows of the summary sheet.
func SummaryRows(q pricing.Quote) [][]any {
	rows := [][]any{
		{LabelProjectName, q.ProjectName},
		{LabelClientName, q.ClientName},
		{LabelQuoteDate, q.Date},
		{LabelDevelopmentSubtotal, q.DevelopmentSubtotal},
	}
	for _, extra := range q.ExtrasWithSubtotal() {
		rows = append(rows, []any{extra.Label, extra.Amount})
	}
	return append(rows,
		[]any{LabelPreTax, q.PreTax},
		[]any{LabelTax, q.Tax},
		[]any{LabelGrandTotal, q.GrandTotal},
	)
}

// DetailRows returns the header row followed by one row per item.
func DetailRows(q pricing.Quote) [][]any {
	header := make([]any, len(DetailHeader))
	for i, h := range DetailHeader {
		header[i] = h
	}
	rows := [][]any{header}
	for _, it := range q.Items {
		rows = append(rows, []any{
			it.Type,
			it.Hours,
			it.Complexity,
			it.Risk,
			it.BaseRate,
			it.AdjustedRate,
			it.Subtotal,
			it.Description,
		})
	}
	return rows
}

// WriteXLSX writes q as a two-sheet workbook. Nothing is written to w unless
// the whole workbook was built.
func WriteXLSX(w io.Writer, q pricing.Quote) error {
	data, err := XLSX(q)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return apperrors.Wrap(apperrors.TypeExport, "write workbook", err)
	}
	return nil
}

// XLSX builds the workbook for q and returns its bytes.
func XLSX(q pricing.Quote) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, exportErr("rename summary sheet", err)
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return nil, exportErr("create detail sheet", err)
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, exportErr("create label style", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, exportErr("create header style", err)
	}

	summary := SummaryRows(q)
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}
	last := fmt.Sprintf("A%d", len(summary))
	if err := f.SetCellStyle(SummarySheet, "A1", last, labelStyle); err != nil {
		return nil, exportErr("style summary labels", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return nil, exportErr("set summary width", err)
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 28); err != nil {
		return nil, exportErr("set summary width", err)
	}

	if err := writeRows(f, DetailSheet, DetailRows(q)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(DetailSheet, "A1", "H1", headerStyle); err != nil {
		return nil, exportErr("style detail header", err)
	}
	widths := []float64{14, 8, 10, 10, 10, 12, 12, 40}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(DetailSheet, col, col, width); err != nil {
			return nil, exportErr("set detail width", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, exportErr("write workbook", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return exportErr("resolve cell", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return exportErr(fmt.Sprintf("write %s row %d", sheet, i+1), err)
		}
	}
	return nil
}

func exportErr(msg string, err error) error {
	return apperrors.Wrap(apperrors.TypeExport, msg, err)
}
