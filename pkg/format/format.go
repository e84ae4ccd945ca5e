// Package format turns raw NPU telemetry into display strings.
//
// Every function is total: zero, absent and malformed input produce the
// documented placeholder instead of an error.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kisy/npustat/pkg/model"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ByteSize formats n with base-1024 scaling and two decimals, e.g. "1.50 KB".
func ByteSize(n uint64) string {
	if n == 0 {
		return "0 B"
	}
	// Integer comparison gives floor(log1024(n)) without float drift at exact powers.
	i := 0
	for i < len(byteUnits)-1 && n >= uint64(1)<<(10*(i+1)) {
		i++
	}
	return fmt.Sprintf("%.2f %s", float64(n)/math.Pow(1024, float64(i)), byteUnits[i])
}

// PacketCount formats n with a decimal G/M/K suffix, e.g. "1.50K".
func PacketCount(n uint64) string {
	switch {
	case n == 0:
		return "0"
	case n >= 1e9:
		return fmt.Sprintf("%.2fG", float64(n)/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", float64(n)/1e3)
	}
	return strconv.FormatUint(n, 10)
}

// ClockMHz formats a clock rate in whole MHz. Zero returns "".
func ClockMHz(hz uint64) string {
	if hz == 0 {
		return ""
	}
	return fmt.Sprintf("%.0f MHz", math.Round(float64(hz)/1e6))
}

var sizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(KiB|MiB|GiB|KB|MB|GB|B)`)

// kibPerUnit maps an upper-cased unit to its size in KiB.
var kibPerUnit = map[string]float64{
	"B":   1.0 / 1024,
	"KB":  1,
	"KIB": 1,
	"MB":  1024,
	"MIB": 1024,
	"GB":  1024 * 1024,
	"GIB": 1024 * 1024,
}

// RegionKiB parses a free-form size string into KiB. No match is zero.
func RegionKiB(size string) float64 {
	m := sizePattern.FindStringSubmatch(size)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v * kibPerUnit[strings.ToUpper(m[2])]
}

// TotalKiB sums the sizes of all regions in KiB.
func TotalKiB(regions []model.MemoryRegion) float64 {
	var total float64
	for _, r := range regions {
		total += RegionKiB(r.Size)
	}
	return total
}

// KiBSize renders a KiB amount: MiB with one decimal from 1024 KiB up,
// otherwise rounded whole KiB.
func KiBSize(kib float64) string {
	if kib >= 1024 {
		return fmt.Sprintf("%.1f MiB", kib/1024)
	}
	return fmt.Sprintf("%d KiB", int64(math.Round(kib)))
}

// TotalMemory is KiBSize(TotalKiB(regions)).
func TotalMemory(regions []model.MemoryRegion) string {
	return KiBSize(TotalKiB(regions))
}
