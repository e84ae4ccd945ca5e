package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The backend is a shell/ucode script and its JSON is loosely typed:
// counters come as numbers or strings, lists sometimes come as objects.
// Decoding here accepts any shape per field and drops what does not fit.

func (d *DeviceStatus) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*d = DeviceStatus{}
		return nil
	}

	*d = DeviceStatus{
		FirmwareVersion: optString(fields["npu_version"]),
		Loaded:          truthy(fields["npu_loaded"]),
		DeviceName:      optString(fields["npu_device"]),
		ClockHz:         optUint(fields["npu_clock"]),
		CoreCount:       optUint(fields["npu_cores"]),
		OffloadPackets:  optUint(fields["offload_packets"]),
		OffloadBytes:    optUint(fields["offload_bytes"]),
	}

	for _, raw := range rawArray(fields["memory_regions"]) {
		var region map[string]json.RawMessage
		if err := json.Unmarshal(raw, &region); err != nil {
			d.MemoryRegions = append(d.MemoryRegions, MemoryRegion{})
			continue
		}
		r := MemoryRegion{}
		if s := optString(region["name"]); s != nil {
			r.Name = *s
		}
		if s := optString(region["size"]); s != nil {
			r.Size = *s
		}
		d.MemoryRegions = append(d.MemoryRegions, r)
	}
	return nil
}

func (p *PpeEntries) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*p = PpeEntries{}
		return nil
	}

	*p = PpeEntries{}
	for _, raw := range rawArray(fields["entries"]) {
		var e FlowEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		p.Entries = append(p.Entries, e)
	}
	return nil
}

func (e *FlowEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// A non-object element still occupies a table row, with every field absent.
		*e = FlowEntry{}
		return nil
	}

	*e = FlowEntry{
		Index:   optString(fields["index"]),
		State:   optString(fields["state"]),
		Type:    optString(fields["type"]),
		Orig:    optString(fields["orig"]),
		NewFlow: optString(fields["new_flow"]),
		Eth:     optString(fields["eth"]),
		Packets: optUint(fields["packets"]),
		Bytes:   optUint(fields["bytes"]),
	}
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func rawArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func optString(raw json.RawMessage) *string {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}
	return nil
}

func optUint(raw json.RawMessage) *uint64 {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var text string
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		text = n.String()
	} else if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	text = strings.TrimSpace(text)

	if v, err := strconv.ParseUint(text, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return nil
	}
	if f >= math.MaxUint64 {
		v := uint64(math.MaxUint64)
		return &v
	}
	v := uint64(f)
	return &v
}

func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 || isNull(raw) {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		// Any non-empty string is truthy, "0" and "false" included.
		return s != ""
	}
	// objects and arrays
	return true
}
