package display

import (
	"fmt"
	"time"

	"github.com/ardnew/statusboard/battery"
)

// ClockLayout formats the clock region.
const ClockLayout = "01/02/2006 03:04:05 PM"

// LowBatteryText is appended to the battery region below the threshold.
const LowBatteryText = " Battery Low"

// ClockText formats t for the clock region.
func ClockText(t time.Time) string { return t.Format(ClockLayout) }

// BatteryText formats r for the battery region. The percentage only appears
// when showPercent is set; the low warning always does.
func BatteryText(r battery.Reading, showPercent bool) string {
	var s string
	if showPercent {
		s = fmt.Sprintf("%.1f %%", r.Percent)
	}
	if r.Low {
		s += LowBatteryText
	}
	return s
}
