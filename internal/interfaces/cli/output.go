package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

var numbers = message.NewPrinter(language.AmericanEnglish)

// table writes aligned columns
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

// money formats an amount with two decimals and thousands separators. The
// value is rounded here, at display time, and nowhere earlier.
func money(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	w, err := decimal.NewFromString(whole)
	if err != nil {
		return sign + fixed
	}
	return sign + numbers.Sprintf("%d", w.IntPart()) + "." + frac
}

// quantity prints a quantity without trailing zeros
func quantity(d decimal.Decimal) string {
	return d.String()
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func parseDate(flag, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}

func parseDecimal(flag, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s must be a number: %w", flag, err)
	}
	return d, nil
}

// pageFooter summarizes the page shown and the total the backend reported
func pageFooter(out io.Writer, p shared.Page, shown int) {
	fmt.Fprintf(out, "\npage %d of %d, %d shown, %d total\n", p.Page, max(p.TotalPages(), 1), shown, p.Total)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
