// journal/csv.go
package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/shopspring/decimal"
)

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{
	"id", "accountId", "symbol", "strategy", "side", "qty", "entryPrice", "exitPrice",
	"r", "pnl", "fees", "entryAt", "exitAt", "tags", "notes",
}

const csvDate = "2006-01-02"

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// WriteCSV writes trades with CSVHeader as the first row.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, t := range trades {
		entry, exit := t.EntryAt, t.EffectiveAt()
		if entry.IsZero() {
			entry = exit
		}
		side := t.Side
		if side == "" {
			side = Long
		}
		err := cw.Write([]string{
			t.ID,
			t.AccountID,
			t.Symbol,
			t.Strategy,
			string(side),
			f(t.Quantity),
			optional(t.EntryPrice),
			optional(t.ExitPrice),
			f(t.R),
			t.PnL.String(),
			t.Fees.String(),
			day(entry),
			day(exit),
			strings.Join(t.Tags, ";"),
			newlines.Replace(t.Notes),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV maps rows by header name. Rows missing an account, symbol,
// strategy or date are skipped. defaultAccount fills a blank accountId.
func ReadCSV(r io.Reader, defaultAccount string) ([]Trade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Trade{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	out := []Trade{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[strings.ToLower(name)]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		entry, _ := parseDate(get("entryAt"))
		exit, _ := parseDate(get("exitAt"))
		if entry.IsZero() {
			entry = exit
		}
		if exit.IsZero() {
			exit = entry
		}

		t := Trade{
			ID:         firstNonEmpty(get("id"), id.New()),
			AccountID:  firstNonEmpty(get("accountId"), defaultAccount),
			Symbol:     get("symbol"),
			Strategy:   get("strategy"),
			Side:       Long,
			Quantity:   parseFloat(get("qty"), 1),
			EntryPrice: parseFloat(get("entryPrice"), 0),
			ExitPrice:  parseFloat(get("exitPrice"), 0),
			R:          parseFloat(get("r"), 0),
			PnL:        parseDecimal(get("pnl")),
			Fees:       parseDecimal(get("fees")),
			EntryAt:    entry,
			ExitAt:     exit,
			Tags:       SplitTags(get("tags")),
			Notes:      get("notes"),
		}
		if strings.EqualFold(get("side"), string(Short)) {
			t.Side = Short
		}
		t.Result = DeriveResult(t.PnL)

		if t.AccountID == "" || t.Symbol == "" || t.Strategy == "" || exit.IsZero() {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

var dateLayouts = []string{csvDate, "02.01.2006", "02/01/2006", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return def
	}
	return finite(v)
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(csvDate)
}

func optional(x float64) string {
	if x == 0 {
		return ""
	}
	return f(x)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
