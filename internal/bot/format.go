package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// FormatVehicleState renders one state record as a Telegram HTML message.
// Pure presentation: no I/O, no mutation.
func FormatVehicleState(state *omnicomm.StateRecord, terminalID string) string {
	if state == nil {
		return fmt.Sprintf("No state available for terminal %s", terminalID)
	}

	lines := []string{
		fmt.Sprintf("🚚 <b>Vehicle state (ID: %s)</b>", terminalID),
		"",
	}

	switch {
	case state.Status != nil && *state.Status:
		lines = append(lines, "✅ <b>Status:</b> active")
	case state.Status != nil:
		lines = append(lines, "❌ <b>Status:</b> inactive")
	case state.LastDataDate != nil && state.CurrentSpeed != nil:
		lines = append(lines, "✅ <b>Status:</b> active (data present)")
	default:
		lines = append(lines, "❓ <b>Status:</b> no data")
	}

	if state.Address != "" {
		lines = append(lines, fmt.Sprintf("🏠 <b>Address:</b> %s", state.Address))
	}
	if state.CurrentFuel != nil {
		lines = append(lines, fmt.Sprintf("⛽ <b>Fuel:</b> %.1f l", *state.CurrentFuel))
	}
	if state.CurrentIgn != nil {
		ign := "OFF"
		if *state.CurrentIgn != 0 {
			ign = "ON"
		}
		lines = append(lines, fmt.Sprintf("🔑 <b>Ignition:</b> %s", ign))
	}
	if state.CurrentSpeed != nil {
		lines = append(lines, fmt.Sprintf("🚗 <b>Speed:</b> %.0f km/h", *state.CurrentSpeed))
	}

	if state.LastDataDate != nil {
		ts := omnicomm.NormalizeTimestamp(*state.LastDataDate)
		lines = append(lines, fmt.Sprintf("🕒 <b>Last data:</b> %s", ts.Format("02.01.2006 15:04:05")))
		lines = append(lines, fmt.Sprintf("   <i>(%s)</i>", formatAge(time.Since(ts))))
	} else {
		lines = append(lines, "🕒 <b>Last data:</b> none")
	}

	if state.LastGPS != nil {
		lines = append(lines,
			fmt.Sprintf("📍 <b>Position:</b> %.6f, %.6f", state.LastGPS.Latitude, state.LastGPS.Longitude),
			fmt.Sprintf("🗺️ <a href=\"https://maps.google.com/?q=%f,%f\">Open map</a>", state.LastGPS.Latitude, state.LastGPS.Longitude),
		)
	}
	if state.LastGPSDir != nil {
		idx := int(*state.LastGPSDir/45+0.5) % len(compassPoints)
		lines = append(lines, fmt.Sprintf("🧭 <b>Heading:</b> %.0f° (%s)", *state.LastGPSDir, compassPoints[idx]))
	}
	if state.LastGPSSat != nil {
		if *state.LastGPSSat > 0 {
			lines = append(lines, fmt.Sprintf("📡 <b>Satellites:</b> %d", *state.LastGPSSat))
		} else {
			lines = append(lines, "📡 <b>Satellites:</b> no signal")
		}
	}
	if state.SpeedExceed != nil && *state.SpeedExceed {
		lines = append(lines, "⚠️ <b>Speeding:</b> yes")
	}
	if state.Voltage != nil {
		lines = append(lines, fmt.Sprintf("🔋 <b>Voltage:</b> %.1f V", *state.Voltage))
	}

	return strings.Join(lines, "\n")
}

// formatAge renders a duration as coarse human-readable age.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h %d min ago", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%d d %d h ago", days, int(d.Hours())%24)
	}
}
