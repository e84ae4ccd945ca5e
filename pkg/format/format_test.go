package format

import (
	"testing"

	"github.com/kisy/npustat/pkg/model"
)

func TestByteSize(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1, "1.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
		{1 << 40, "1.00 TB"},
		{1 << 50, "1024.00 TB"},
	}
	for _, tt := range tests {
		if got := ByteSize(tt.in); got != tt.want {
			t.Errorf("ByteSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPacketCount(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1.00K"},
		{1500, "1.50K"},
		{2_500_000, "2.50M"},
		{3_000_000_000, "3.00G"},
	}
	for _, tt := range tests {
		if got := PacketCount(tt.in); got != tt.want {
			t.Errorf("PacketCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClockMHz(t *testing.T) {
	if got := ClockMHz(0); got != "" {
		t.Errorf("ClockMHz(0) = %q, want empty", got)
	}
	if got := ClockMHz(750_000_000); got != "750 MHz" {
		t.Errorf("ClockMHz(750e6) = %q", got)
	}
}

func regions(sizes ...string) []model.MemoryRegion {
	out := make([]model.MemoryRegion, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, model.MemoryRegion{Size: s})
	}
	return out
}

func TestTotalMemory(t *testing.T) {
	tests := []struct {
		name string
		in   []model.MemoryRegion
		want string
	}{
		{"empty", nil, "0 KiB"},
		{"mixed units", regions("512 KiB", "1 MiB"), "1.5 MiB"},
		{"garbage", regions("garbage"), "0 KiB"},
		{"case insensitive", regions("256kib", "256 KB"), "512 KiB"},
		{"bytes", regions("2048 B"), "2 KiB"},
		{"fractional", regions("1.5 MB"), "1.5 MiB"},
		{"gib", regions("1 GiB"), "1024.0 MiB"},
		{"embedded in text", regions("reserved: 64 KiB @0x1000"), "64 KiB"},
		{"garbage ignored in sum", regions("64 KiB", "n/a", ""), "64 KiB"},
		{"rounding", regions("1000 B"), "1 KiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalMemory(tt.in); got != tt.want {
				t.Errorf("TotalMemory = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegionKiB(t *testing.T) {
	if got := RegionKiB("512 KiB"); got != 512 {
		t.Errorf("RegionKiB(512 KiB) = %v", got)
	}
	if got := RegionKiB("1 MiB"); got != 1024 {
		t.Errorf("RegionKiB(1 MiB) = %v", got)
	}
	if got := RegionKiB("MiB"); got != 0 {
		t.Errorf("RegionKiB(MiB) = %v", got)
	}
}
