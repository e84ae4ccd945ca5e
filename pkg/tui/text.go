package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/model"
	"github.com/kisy/npustat/pkg/surface"
)

// styler decorates parts of the text panel. The plain styler leaves
// everything as is.
type styler struct {
	title   func(string) string
	section func(string) string
	label   func(string) string
	status  func(text, class string) string
	state   func(tag string) string
}

func identity(s string) string { return s }

var plain = styler{
	title:   identity,
	section: identity,
	label:   identity,
	status:  func(text, _ string) string { return text },
	state:   identity,
}

// WriteText writes the panel in s as plain text.
func WriteText(w io.Writer, s *surface.Surface, tr i18n.Func) error {
	_, err := io.WriteString(w, renderText(s, tr, plain))
	return err
}

func renderText(s *surface.Surface, tr i18n.Func, st styler) string {
	var b strings.Builder

	b.WriteString(st.title(tr("Airoha NPU Status")))
	b.WriteString("\n\n")

	b.WriteString(st.section(tr("NPU Information")))
	b.WriteString("\n")
	labelWidth := 0
	for _, f := range engine.InfoFields {
		labelWidth = max(labelWidth, runewidth.StringWidth(tr(f.Label)))
	}
	for _, f := range engine.InfoFields {
		value := s.Text(f.ID)
		if f.ID == engine.IDStatus {
			value = st.status(value, s.Classes(f.ID))
		}
		fmt.Fprintf(&b, "  %s  %s\n", st.label(runewidth.FillRight(tr(f.Label), labelWidth)), value)
	}
	b.WriteString("\n")

	b.WriteString(st.section(tr("PPE Flow Offload Entries")))
	b.WriteString("\n")
	b.WriteString(s.Text(engine.IDSummary))
	b.WriteString("\n")

	rows := s.Cells(engine.IDTable)
	if len(rows) == 0 {
		return b.String()
	}
	header := rows[0]

	table := tablewriter.NewWriter(&b)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range rows[1:] {
		if len(row) < len(header) {
			// Placeholder row spanning every column.
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		} else if len(row) > 1 {
			row[1] = st.state(row[1])
		}
		table.Append(row)
	}
	table.Render()
	return b.String()
}

// colored is the styler of the interactive view.
var colored = styler{
	title:   func(s string) string { return TitleStyle.Render(s) },
	section: func(s string) string { return HeaderStyle.Render(s) },
	label:   func(s string) string { return LabelStyle.Render(s) },
	status: func(text, class string) string {
		switch class {
		case model.SeveritySuccess.Class():
			return SuccessStyle.Render(text)
		case model.SeverityDanger.Class():
			return ErrorStyle.Render(text)
		}
		return text
	},
	state: func(tag string) string {
		switch model.ParseFlowState(tag).Severity() {
		case model.SeveritySuccess:
			return SuccessStyle.Render(tag)
		case model.SeverityWarning:
			return WarningStyle.Render(tag)
		}
		return tag
	},
}
