package shutdown

import (
	"fmt"

	"github.com/fgeck/emergency-shutdown/internal/models"
)

// Flag is the argument of the forced shutdown request.
type Flag uint32

// Values accepted by NtShutdownSystem.
const (
	FlagHalt            Flag = 0
	FlagHaltAndRestart  Flag = 1
	FlagHaltAndPowerOff Flag = 2
)

func (f Flag) String() string {
	switch f {
	case FlagHalt:
		return "halt"
	case FlagHaltAndRestart:
		return "halt-and-restart"
	case FlagHaltAndPowerOff:
		return "halt-and-power-off"
	default:
		return fmt.Sprintf("Flag(%d)", uint32(f))
	}
}

// RequestFlag maps an action to its request flag. It panics on an action
// outside the enumeration.
func RequestFlag(action models.ShutdownAction) Flag {
	switch action {
	case models.NoReboot:
		return FlagHalt
	case models.Reboot:
		return FlagHaltAndRestart
	case models.PowerOff:
		return FlagHaltAndPowerOff
	}
	panic(fmt.Sprintf("shutdown: unknown action %d", int(action)))
}
