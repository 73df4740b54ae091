package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"salao/internal/core"
)

// XLSXContentType is the media type of workbooks written by WriteLedgerXLSX.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const xlsxSheet = "Fechamento"

// XLSXFileName is the text export name with an .xlsx extension.
func XLSXFileName(p core.FortnightPeriod) string {
	return strings.TrimSuffix(core.ExportFileName(p), ".txt") + ".xlsx"
}

// WriteLedgerXLSX writes the ledger as a single-sheet workbook: a title row,
// a header row, one row per service group and a TOTAL row. Amounts are
// numeric cells formatted with two decimals.
func WriteLedgerXLSX(w io.Writer, r core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("0.00")})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}

	rows := [][]any{
		{"Fechamento " + r.Period.Label()},
		{},
		{"Data", "Qtd", "Serviço", "Valor"},
	}
	for _, b := range r.Buckets {
		date := b.Date
		if d, ok := core.ParseCalendarDate(b.Date); ok {
			date = d.LongLabel()
		}
		for _, g := range b.ServiceGroups() {
			rows = append(rows, []any{date, g.Quantity, g.DisplayName(), g.Subtotal.Decimal().InexactFloat64()})
		}
	}
	rows = append(rows, []any{"TOTAL", nil, nil, r.GrandTotal.Decimal().InexactFloat64()})

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	first, last := 4, len(rows)
	if err := f.SetCellStyle(xlsxSheet, fmt.Sprintf("D%d", first), fmt.Sprintf("D%d", last), amountStyle); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	for _, cell := range []string{"A1", "A3", "B3", "C3", "D3", fmt.Sprintf("A%d", last)} {
		if err := f.SetCellStyle(xlsxSheet, cell, cell, titleStyle); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	if err := f.SetColWidth(xlsxSheet, "C", "C", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	return f.Write(w)
}

func ptr[T any](v T) *T { return &v }
