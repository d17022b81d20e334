package models

import (
	"fmt"
	"strings"
)

// ShutdownAction selects what the machine does once the kernel stops it.
// The numeric values match the kernel's SHUTDOWN_ACTION enumeration.
type ShutdownAction int

const (
	// NoReboot halts the system without restarting it.
	NoReboot ShutdownAction = iota
	// Reboot halts the system and restarts it.
	Reboot
	// PowerOff halts the system and cuts power.
	PowerOff
)

// ShutdownActions lists every valid action in declaration order.
var ShutdownActions = []ShutdownAction{NoReboot, Reboot, PowerOff}

func (a ShutdownAction) String() string {
	switch a {
	case NoReboot:
		return "noreboot"
	case Reboot:
		return "reboot"
	case PowerOff:
		return "poweroff"
	default:
		return fmt.Sprintf("ShutdownAction(%d)", int(a))
	}
}

// Valid reports whether a is one of the three known actions.
func (a ShutdownAction) Valid() bool {
	return a >= NoReboot && a <= PowerOff
}

// ParseShutdownAction parses an action name. Both the short names
// (noreboot, reboot, poweroff) and the long ShutdownXxx names are accepted,
// case-insensitively.
func ParseShutdownAction(s string) (ShutdownAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noreboot", "shutdownnoreboot":
		return NoReboot, nil
	case "reboot", "shutdownreboot":
		return Reboot, nil
	case "poweroff", "shutdownpoweroff":
		return PowerOff, nil
	default:
		return 0, fmt.Errorf("unknown shutdown action %q (must be one of: noreboot, reboot, poweroff)", s)
	}
}
