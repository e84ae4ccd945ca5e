package engine

import (
	"fmt"

	"github.com/kisy/npustat/pkg/format"
	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/model"
	"github.com/kisy/npustat/pkg/surface"
	"github.com/kisy/npustat/pkg/table"
	"github.com/kisy/npustat/pkg/viewmodel"
)

// Element ids of the patchable parts of the panel.
const (
	IDRefresh = "refresh-button"
	IDVersion = "npu-version"
	IDStatus  = "npu-status"
	IDClock   = "npu-clock"
	IDMemory  = "npu-memory"
	IDOffload = "npu-offload"
	IDSummary = "ppe-summary"
	IDTable   = "ppe-entries-table"
)

// InfoField is one labelled line of the information section.
type InfoField struct {
	Label string // msgid
	ID    string
}

// InfoFields lists the information section in display order.
var InfoFields = []InfoField{
	{"NPU Firmware Version", IDVersion},
	{"NPU Status", IDStatus},
	{"NPU Clock / Cores", IDClock},
	{"Reserved Memory", IDMemory},
	{"Offload Traffic", IDOffload},
}

// RenderInitial builds the whole panel from the first load.
func RenderInitial(data Data, tr i18n.Func) *surface.Surface {
	return renderView(viewmodel.Build(data.Status, data.Entries), tr)
}

// ApplyUpdate patches the text and table body of a panel built by
// RenderInitial. The static structure is left alone.
func ApplyUpdate(s *surface.Surface, data Data, tr i18n.Func) {
	applyView(s, viewmodel.Build(data.Status, data.Entries), tr)
}

func renderView(vm viewmodel.ViewModel, tr i18n.Func) *surface.Surface {
	E := surface.E
	type A = surface.Attrs

	values := map[string]any{
		IDVersion: versionText(vm, tr),
		IDStatus:  statusBadge(vm, tr),
		IDClock:   clockText(vm, tr),
		IDMemory:  memoryText(vm, tr),
		IDOffload: offloadText(vm, tr),
	}
	info := make([]*surface.Node, 0, len(InfoFields))
	for _, f := range InfoFields {
		info = append(info, E("tr", A{"class": "tr"},
			E("td", A{"class": "td", "width": "33%"}, E("strong", nil, tr(f.Label))),
			E("td", A{"class": "td", "id": f.ID}, values[f.ID]),
		))
	}

	headers := make([]*surface.Node, 0, table.Columns)
	for _, h := range table.Headers(tr) {
		headers = append(headers, E("th", A{"class": "th"}, h))
	}

	root := E("div", A{"class": "cbi-map"},
		E("h2", nil, tr("Airoha NPU Status")),
		E("div", A{"style": "margin-bottom:10px;"},
			E("button", A{"class": "btn btn-primary", "id": IDRefresh}, tr("Manual Refresh")),
		),
		E("div", A{"class": "cbi-section"},
			E("h3", nil, tr("NPU Information")),
			E("table", A{"class": "table table-striped"}, info),
		),
		E("div", A{"class": "cbi-section"},
			E("h3", nil, tr("PPE Flow Offload Entries")),
			E("div", A{"class": "cbi-section-descr", "id": IDSummary}, summaryText(vm, tr)),
			E("div", A{"style": "overflow-x:auto;"},
				E("table", A{"class": "table table-striped", "id": IDTable},
					E("tr", A{"class": "tr cbi-section-table-titles"}, headers),
					rowNodes(table.Rows(vm.Entries, tr)),
				),
			),
		),
	)
	return surface.New(root)
}

func applyView(s *surface.Surface, vm viewmodel.ViewModel, tr i18n.Func) {
	rows := rowNodes(table.Rows(vm.Entries, tr))
	s.Patch(func(tx *surface.Tx) {
		tx.SetText(IDVersion, versionText(vm, tr))
		tx.ReplaceChildren(IDStatus, statusBadge(vm, tr))
		tx.SetText(IDClock, clockText(vm, tr))
		tx.SetText(IDMemory, memoryText(vm, tr))
		tx.SetText(IDOffload, offloadText(vm, tr))
		tx.SetText(IDSummary, summaryText(vm, tr))

		// Header row stays; every old body row goes before the new ones land.
		tx.TruncateChildren(IDTable, 1)
		tx.AppendChildren(IDTable, rows...)
	})
}

func versionText(vm viewmodel.ViewModel, tr i18n.Func) string {
	if vm.Status.FirmwareVersion == "" {
		return tr("Not available")
	}
	return vm.Status.FirmwareVersion
}

func statusBadge(vm viewmodel.ViewModel, tr i18n.Func) *surface.Node {
	if !vm.Status.Loaded {
		return surface.E("span", surface.Attrs{"class": model.SeverityDanger.Class()}, tr("Inactive"))
	}
	text := tr("Active")
	if vm.Status.DeviceName != "" {
		text += " (" + vm.Status.DeviceName + ")"
	}
	return surface.E("span", surface.Attrs{"class": model.SeveritySuccess.Class()}, text)
}

func clockText(vm viewmodel.ViewModel, tr i18n.Func) string {
	clock := format.ClockMHz(vm.Status.ClockHz)
	if clock == "" {
		clock = tr("Unknown")
	}
	return fmt.Sprintf(tr("%s / %d cores"), clock, vm.Status.CoreCount)
}

func memoryText(vm viewmodel.ViewModel, tr i18n.Func) string {
	return fmt.Sprintf(tr("%s (%d memory regions)"),
		format.KiBSize(vm.Status.TotalMemoryKiB), len(vm.Status.MemoryRegions))
}

func offloadText(vm viewmodel.ViewModel, tr i18n.Func) string {
	return fmt.Sprintf(tr("%s packets / %s"),
		format.PacketCount(vm.Status.OffloadPackets), format.ByteSize(vm.Status.OffloadBytes))
}

func summaryText(vm viewmodel.ViewModel, tr i18n.Func) string {
	return fmt.Sprintf("%s %d | %s %d | %s %d",
		tr("Total:"), vm.Counts.Total,
		tr("Bound:"), vm.Counts.Bound,
		tr("Unbound:"), vm.Counts.Unbound)
}

func rowNodes(rows []table.Row) []*surface.Node {
	E := surface.E
	type A = surface.Attrs

	nodes := make([]*surface.Node, 0, len(rows))
	for _, r := range rows {
		if r.Placeholder {
			nodes = append(nodes, E("tr", A{"class": "tr"},
				E("td", A{"class": "td", "colspan": fmt.Sprint(table.Columns), "style": "text-align:center;"}, r.Message),
			))
			continue
		}
		nodes = append(nodes, E("tr", A{"class": "tr"},
			E("td", A{"class": "td"}, r.Index),
			E("td", A{"class": "td"}, E("span", A{"class": r.Severity.Class()}, r.State)),
			E("td", A{"class": "td"}, r.Type),
			E("td", A{"class": "td"}, r.Orig),
			E("td", A{"class": "td"}, r.NewFlow),
			E("td", A{"class": "td"}, r.Eth),
			E("td", A{"class": "td"}, r.Packets),
			E("td", A{"class": "td"}, r.Bytes),
		))
	}
	return nodes
}
