// Package viewmodel normalizes backend payloads into the shape the panel
// renders from. Nothing past this package sees an optional field.
package viewmodel

import (
	"github.com/kisy/npustat/pkg/format"
	"github.com/kisy/npustat/pkg/model"
)

// Status is DeviceStatus with defaults applied. Empty strings mean unknown.
type Status struct {
	FirmwareVersion string               `json:"firmware_version"`
	Loaded          bool                 `json:"loaded"`
	DeviceName      string               `json:"device_name"`
	ClockHz         uint64               `json:"clock_hz"`
	CoreCount       uint64               `json:"core_count"`
	MemoryRegions   []model.MemoryRegion `json:"memory_regions"`
	TotalMemoryKiB  float64              `json:"total_memory_kib"`
	OffloadPackets  uint64               `json:"offload_packets"`
	OffloadBytes    uint64               `json:"offload_bytes"`
}

// Entry is a FlowEntry with defaults applied and its state classified.
type Entry struct {
	Index   string          `json:"index"`
	RawTag  string          `json:"state_tag"`
	State   model.FlowState `json:"-"`
	Type    string          `json:"type"`
	Orig    string          `json:"orig"`
	NewFlow string          `json:"new_flow"`
	Eth     string          `json:"eth"`
	Packets uint64          `json:"packets"`
	Bytes   uint64          `json:"bytes"`
}

// Counts are computed over the full entry list, never the displayed slice.
type Counts struct {
	Total   int `json:"total"`
	Bound   int `json:"bound"`
	Unbound int `json:"unbound"`
	Other   int `json:"other"`
}

// ViewModel is rebuilt from scratch on every fetch cycle.
type ViewModel struct {
	Status  Status  `json:"status"`
	Entries []Entry `json:"entries"`
	Counts  Counts  `json:"counts"`
}

// Build normalizes one status payload and one entries payload.
func Build(status model.DeviceStatus, ppe model.PpeEntries) ViewModel {
	regions := status.MemoryRegions
	if regions == nil {
		regions = []model.MemoryRegion{}
	}

	vm := ViewModel{
		Status: Status{
			FirmwareVersion: str(status.FirmwareVersion),
			Loaded:          status.Loaded,
			DeviceName:      str(status.DeviceName),
			ClockHz:         num(status.ClockHz),
			CoreCount:       num(status.CoreCount),
			MemoryRegions:   regions,
			TotalMemoryKiB:  format.TotalKiB(regions),
			OffloadPackets:  num(status.OffloadPackets),
			OffloadBytes:    num(status.OffloadBytes),
		},
		Entries: make([]Entry, 0, len(ppe.Entries)),
	}

	for _, fe := range ppe.Entries {
		e := Entry{
			Index:   str(fe.Index),
			RawTag:  str(fe.State),
			Type:    str(fe.Type),
			Orig:    str(fe.Orig),
			NewFlow: str(fe.NewFlow),
			Eth:     str(fe.Eth),
			Packets: num(fe.Packets),
			Bytes:   num(fe.Bytes),
		}
		e.State = model.ParseFlowState(e.RawTag)
		vm.Entries = append(vm.Entries, e)

		switch e.State {
		case model.StateBound:
			vm.Counts.Bound++
		case model.StateUnbound:
			vm.Counts.Unbound++
		default:
			vm.Counts.Other++
		}
	}
	vm.Counts.Total = len(vm.Entries)

	return vm
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
