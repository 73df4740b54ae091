package core

import (
	"bufio"
	"strconv"
	"strings"
	"testing"
)

func TestRenderLedgerText(t *testing.T) {
	p, err := ResolvePeriod(FirstHalf, 2025, 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r := BuildReport(p, []Appointment{
		appt("1", "2025-03-03", 9000, "Penteado"),
		appt("2", "2025-03-03", 9000, "Penteado (noiva)"),
		appt("3", "2025-03-03", 4500, "Escova"),
		appt("4", "2025-03-01", 3000, "Maquiagem (ajuda Carla)"),
	})

	want := "Fechamento 01/03/2025 a 15/03/2025\n\n" +
		"01/03\n" +
		"1 meio Maquiagem (ajuda Carla) = 30,00\n" +
		"\n" +
		"03/03\n" +
		"2 Penteados = 180,00\n" +
		"1 Escova = 45,00\n" +
		"\n" +
		"\nTOTAL 255,00\n"
	if got := RenderLedgerText(r); got != want {
		t.Fatalf("ledger mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderLedgerTextEmpty(t *testing.T) {
	p, _ := ResolvePeriod(SecondHalf, 2025, 4)
	buckets, total := Aggregate(nil)
	text := RenderLedgerText(Report{Period: p, Buckets: buckets, GrandTotal: total})

	var nonBlank []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			nonBlank = append(nonBlank, line)
		}
	}
	if len(nonBlank) != 2 || nonBlank[0] != "Fechamento 16/04/2025 a 30/04/2025" || nonBlank[1] != "TOTAL 0,00" {
		t.Fatalf("unexpected empty ledger: %q", text)
	}
}

func TestRenderLedgerTextDeterministic(t *testing.T) {
	p, _ := ResolvePeriod(FirstHalf, 2025, 3)
	r := BuildReport(p, fixture())
	first := RenderLedgerText(r)
	for i := 0; i < 5; i++ {
		if got := RenderLedgerText(r); got != first {
			t.Fatalf("render %d differs", i)
		}
	}
}

type parsedLine struct {
	qty      int
	name     string
	subtotal Money
}

type parsedDay struct {
	label string
	lines []parsedLine
}

// parseLedger is the inverse of RenderLedgerText, used to check that nothing
// is lost between the report and its text.
func parseLedger(t *testing.T, text string) (string, []parsedDay, Money) {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(text))
	var header string
	var days []parsedDay
	var total Money
	var cur *parsedDay
	for sc.Scan() {
		line := sc.Text()
		switch {
		case header == "":
			header = strings.TrimPrefix(line, "Fechamento ")
		case line == "":
			cur = nil
		case strings.HasPrefix(line, "TOTAL "):
			m, err := ParseAmount(strings.TrimPrefix(line, "TOTAL "))
			if err != nil {
				t.Fatalf("total: %v", err)
			}
			total = m
		case cur == nil:
			days = append(days, parsedDay{label: line})
			cur = &days[len(days)-1]
		default:
			sp := strings.IndexByte(line, ' ')
			eq := strings.LastIndex(line, " = ")
			if sp < 0 || eq < 0 {
				t.Fatalf("malformed service line %q", line)
			}
			qty, err := strconv.Atoi(line[:sp])
			if err != nil {
				t.Fatalf("qty in %q: %v", line, err)
			}
			sub, err := ParseAmount(line[eq+3:])
			if err != nil {
				t.Fatalf("subtotal in %q: %v", line, err)
			}
			cur.lines = append(cur.lines, parsedLine{qty: qty, name: line[sp+1 : eq], subtotal: sub})
		}
	}
	return header, days, total
}

func TestRenderLedgerTextRoundTrip(t *testing.T) {
	p, _ := ResolvePeriod(FirstHalf, 2025, 3)
	r := BuildReport(p, fixture())
	header, days, total := parseLedger(t, RenderLedgerText(r))

	if header != p.Label() {
		t.Fatalf("header = %q", header)
	}
	if total != r.GrandTotal {
		t.Fatalf("total = %v, want %v", total, r.GrandTotal)
	}
	if len(days) != len(r.Buckets) {
		t.Fatalf("days = %d, want %d", len(days), len(r.Buckets))
	}
	for i, b := range r.Buckets {
		d := days[i]
		if d.label != b.DayLabel() {
			t.Fatalf("day %d label %q, want %q", i, d.label, b.DayLabel())
		}
		if len(d.lines) != len(b.Groups) {
			t.Fatalf("day %s: %d lines, want %d", d.label, len(d.lines), len(b.Groups))
		}
		var sum Money
		for j, g := range b.Groups {
			l := d.lines[j]
			if l.qty != g.Quantity || l.name != g.DisplayName() || l.subtotal != g.Subtotal {
				t.Fatalf("day %s line %d = %+v, want %+v", d.label, j, l, g)
			}
			sum = sum.Add(l.subtotal)
		}
		if sum != b.Total {
			t.Fatalf("day %s: lines sum %v, bucket total %v", d.label, sum, b.Total)
		}
	}
}
