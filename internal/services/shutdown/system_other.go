//go:build !windows

package shutdown

import (
	"runtime"

	"github.com/fgeck/emergency-shutdown/internal/models"
)

type unsupportedSystem struct{}

func newSystem() (Privileges, Kernel) {
	return unsupportedSystem{}, unsupportedSystem{}
}

func (unsupportedSystem) LookupPrivilege(string) (models.PrivilegeID, error) {
	return models.PrivilegeID{}, &UnsupportedPlatformError{GOOS: runtime.GOOS}
}

func (unsupportedSystem) OpenProcessToken() (Token, error) {
	return nil, &UnsupportedPlatformError{GOOS: runtime.GOOS}
}

// RequestShutdown is unreachable through Impl, which fails the platform check first.
func (unsupportedSystem) RequestShutdown(Flag) Status {
	return StatusProcedureNotFound
}
