package sensors

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const powerSupplyRoot = "/sys/class/power_supply"

// LiPo discharge curve endpoints for the voltage fallback path. The badge's
// fuel gauge usually exposes capacity directly; voltage_now is what the bare
// ADC gives us on boards without a gauge.
const (
	emptyVolts = 3.30
	fullVolts  = 4.20
)

// SysfsBattery reads the charge level from the kernel power-supply class.
type SysfsBattery struct {
	dir string
}

// NewSysfsBattery reads from /sys/class/power_supply/<name>.
func NewSysfsBattery(name string) *SysfsBattery {
	return &SysfsBattery{dir: filepath.Join(powerSupplyRoot, name)}
}

// NewSysfsBatteryAt reads from an explicit directory. Used by tests and
// non-standard sysfs layouts.
func NewSysfsBatteryAt(dir string) *SysfsBattery {
	return &SysfsBattery{dir: dir}
}

// Percent returns the charge level. It prefers the gauge's capacity file and
// falls back to converting the raw pack voltage; an unreadable supply is 0.
func (b *SysfsBattery) Percent() int {
	if v, ok := b.readInt("capacity"); ok {
		return clampPercent(v)
	}
	if uv, ok := b.readInt("voltage_now"); ok {
		return percentFromVoltage(float64(uv) / 1e6)
	}
	return 0
}

func (b *SysfsBattery) readInt(file string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(b.dir, file))
	if err != nil {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// percentFromVoltage maps pack voltage onto [0, 100] linearly between the
// curve endpoints. Coarse, but the badge only shows a whole-percent figure.
func percentFromVoltage(volts float64) int {
	frac := (volts - emptyVolts) / (fullVolts - emptyVolts)
	return clampPercent(int(frac*100 + 0.5))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
