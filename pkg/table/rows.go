// Package table projects flow entries into display rows.
package table

import (
	"github.com/kisy/npustat/pkg/format"
	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/model"
	"github.com/kisy/npustat/pkg/viewmodel"
)

// MaxRows caps the rendered table. Counts always cover every entry.
const MaxRows = 200

// Columns is the number of cells in a row.
const Columns = 8

// ZeroEthPair is reported by the PPE for entries without an L2 rewrite.
const ZeroEthPair = "00:00:00:00:00:00->00:00:00:00:00:00"

// Placeholder shown for an empty cell.
const empty = "-"

// Row holds the display strings of one table row. A placeholder row only
// carries Message and spans all columns.
type Row struct {
	Placeholder bool
	Message     string

	Index    string
	State    string
	Severity model.Severity
	Type     string
	Orig     string
	NewFlow  string
	Eth      string
	Packets  string
	Bytes    string
}

// Headers returns the localized column titles.
func Headers(tr i18n.Func) []string {
	return []string{
		tr("Index"),
		tr("State"),
		tr("Type"),
		tr("Original Flow"),
		tr("New Flow"),
		tr("Ethernet"),
		tr("Packets"),
		tr("Bytes"),
	}
}

// Rows renders at most MaxRows entries in their original order. An empty
// list yields a single placeholder row.
func Rows(entries []viewmodel.Entry, tr i18n.Func) []Row {
	if len(entries) == 0 {
		return []Row{{Placeholder: true, Message: tr("No PPE flow entries available")}}
	}

	if len(entries) > MaxRows {
		entries = entries[:MaxRows]
	}
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Index:    orDash(e.Index),
			State:    orDash(e.RawTag),
			Severity: e.State.Severity(),
			Type:     orDash(e.Type),
			Orig:     orDash(e.Orig),
			NewFlow:  orDash(e.NewFlow),
			Eth:      EthPair(e.Eth),
			Packets:  format.PacketCount(e.Packets),
			Bytes:    format.ByteSize(e.Bytes),
		})
	}
	return rows
}

// Cells returns the row as plain strings in column order.
func (r Row) Cells() []string {
	if r.Placeholder {
		return []string{r.Message}
	}
	return []string{r.Index, r.State, r.Type, r.Orig, r.NewFlow, r.Eth, r.Packets, r.Bytes}
}

// EthPair resolves the ethernet pair, hiding the all-zero sentinel.
func EthPair(eth string) string {
	if eth == "" || eth == ZeroEthPair {
		return empty
	}
	return eth
}

func orDash(s string) string {
	if s == "" {
		return empty
	}
	return s
}
