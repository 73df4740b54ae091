package core

import (
	"strconv"
	"strings"
)

// RenderLedgerText renders the closing ledger used for export, clipboard and print:
//
//	Fechamento 01/03/2025 a 15/03/2025
//
//	03/03
//	2 Penteados = 180,00
//	1 Escova = 45,00
//
//
//	TOTAL 225,00
//
// The output is byte-for-byte deterministic for a given report.
func RenderLedgerText(r Report) string {
	var sb strings.Builder
	sb.WriteString("Fechamento ")
	sb.WriteString(r.Period.Label())
	sb.WriteString("\n\n")

	for _, b := range r.Buckets {
		sb.WriteString(b.DayLabel())
		sb.WriteByte('\n')
		for _, g := range b.ServiceGroups() {
			sb.WriteString(strconv.Itoa(g.Quantity))
			sb.WriteByte(' ')
			sb.WriteString(g.DisplayName())
			sb.WriteString(" = ")
			sb.WriteString(FormatAmount(g.Subtotal))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	sb.WriteString("\nTOTAL ")
	sb.WriteString(FormatAmount(r.GrandTotal))
	sb.WriteByte('\n')
	return sb.String()
}
