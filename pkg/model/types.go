package model

// DeviceStatus is the payload of luci.airoha_npu getStatus.
// Every field is optional; nil means the backend did not report it.
type DeviceStatus struct {
	FirmwareVersion *string        `json:"npu_version,omitempty"`
	Loaded          bool           `json:"npu_loaded"`
	DeviceName      *string        `json:"npu_device,omitempty"`
	ClockHz         *uint64        `json:"npu_clock,omitempty"`
	CoreCount       *uint64        `json:"npu_cores,omitempty"`
	MemoryRegions   []MemoryRegion `json:"memory_regions,omitempty"`
	OffloadPackets  *uint64        `json:"offload_packets,omitempty"`
	OffloadBytes    *uint64        `json:"offload_bytes,omitempty"`
}

// MemoryRegion is one reserved memory block. Size is free-form ("512 KiB").
type MemoryRegion struct {
	Name string `json:"name,omitempty"`
	Size string `json:"size"`
}

// PpeEntries is the payload of luci.airoha_npu getPpeEntries.
type PpeEntries struct {
	Entries []FlowEntry `json:"entries"`
}

// FlowEntry is one PPE flow-offload record.
type FlowEntry struct {
	Index   *string `json:"index,omitempty"`
	State   *string `json:"state,omitempty"` // raw tag: BND, UNB, ...
	Type    *string `json:"type,omitempty"`
	Orig    *string `json:"orig,omitempty"`
	NewFlow *string `json:"new_flow,omitempty"`
	Eth     *string `json:"eth,omitempty"`
	Packets *uint64 `json:"packets,omitempty"`
	Bytes   *uint64 `json:"bytes,omitempty"`
}

// FlowState is the binding state of a flow entry.
type FlowState int

const (
	StateOther FlowState = iota
	StateBound
	StateUnbound
)

// ParseFlowState classifies a raw state tag. Unknown tags are StateOther.
func ParseFlowState(tag string) FlowState {
	switch tag {
	case "BND":
		return StateBound
	case "UNB":
		return StateUnbound
	default:
		return StateOther
	}
}

func (s FlowState) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateUnbound:
		return "unbound"
	default:
		return "other"
	}
}

// Severity selects the visual weight of a badge.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityNeutral Severity = "default"
)

// Class returns the CSS class list used for a badge of this severity.
func (s Severity) Class() string {
	return "label label-" + string(s)
}

// Severity maps a flow state to its badge severity.
func (s FlowState) Severity() Severity {
	switch s {
	case StateBound:
		return SeveritySuccess
	case StateUnbound:
		return SeverityWarning
	default:
		return SeverityNeutral
	}
}
