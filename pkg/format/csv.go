// Package format renders tool results into the compact textual forms the
// agent surface returns: CSV tables for series data and row sets.
package format

import (
	"encoding/csv"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/finbridge/investor-agent/pkg/ta"
)

// CSV renders a header row plus data rows as an RFC 4180 CSV string.
func CSV(headers []string, rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(headers)
	_ = w.WriteAll(rows)
	w.Flush()
	return sb.String()
}

// BarsCSV renders OHLCV bars as date-indexed CSV.
func BarsCSV(bars []ta.Bar) string {
	rows := make([][]string, len(bars))
	for i, b := range bars {
		rows[i] = []string{
			time.Unix(b.Timestamp, 0).UTC().Format("2006-01-02"),
			Float(b.Open),
			Float(b.High),
			Float(b.Low),
			Float(b.Close),
			strconv.FormatFloat(b.Volume, 'f', 0, 64),
		}
	}
	return CSV([]string{"Date", "Open", "High", "Low", "Close", "Volume"}, rows)
}

// ClosesCSV renders a single close-price column, named by symbol, with
// timestamps. Used for intraday bar output.
func ClosesCSV(symbol string, timestamps []time.Time, closes []float64) string {
	n := len(timestamps)
	if len(closes) < n {
		n = len(closes)
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{
			timestamps[i].Format("2006-01-02 15:04:05 MST"),
			Float(closes[i]),
		}
	}
	return CSV([]string{"timestamp", symbol}, rows)
}

// RowsCSV renders a list of string maps under a fixed column order. Missing
// cells render empty.
func RowsCSV(columns []string, rows []map[string]string) string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = row[col]
		}
		out[i] = cells
	}
	return CSV(columns, out)
}

// SortedColumns returns a deterministic column order for a set of row maps:
// the union of keys, sorted.
func SortedColumns(rows []map[string]string) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Float renders a float with four decimals, trimming trailing zeros, and
// "N/A" for NaN. Matches how indicator values are reported.
func Float(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
