package shutdown

import (
	"errors"
	"fmt"

	"github.com/fgeck/emergency-shutdown/internal/models"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrPrivilegeLookup     = errors.New("privilege lookup failed")
	ErrPrivilegeAdjustment = errors.New("privilege adjustment failed")
	ErrShutdownRequest     = errors.New("shutdown request failed")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// PrivilegeLookupError reports that the named privilege could not be resolved.
type PrivilegeLookupError struct {
	Privilege string
	Err       error
}

func (e *PrivilegeLookupError) Error() string {
	return fmt.Sprintf("failed to look up privilege %s: %v", e.Privilege, e.Err)
}

func (e *PrivilegeLookupError) Unwrap() error { return e.Err }

func (e *PrivilegeLookupError) Is(target error) bool { return target == ErrPrivilegeLookup }

// PrivilegeAdjustmentError reports that the privilege could not be enabled in
// the process token. Usually the process is not running elevated.
type PrivilegeAdjustmentError struct {
	Privilege string
	Err       error
}

func (e *PrivilegeAdjustmentError) Error() string {
	return fmt.Sprintf("failed to enable privilege %s (is the process running as administrator?): %v", e.Privilege, e.Err)
}

func (e *PrivilegeAdjustmentError) Unwrap() error { return e.Err }

func (e *PrivilegeAdjustmentError) Is(target error) bool { return target == ErrPrivilegeAdjustment }

// ShutdownRequestError reports that the kernel request returned control to
// the caller. Status carries the code it returned.
type ShutdownRequestError struct {
	Action models.ShutdownAction
	Flag   Flag
	Status Status
}

func (e *ShutdownRequestError) Error() string {
	if e.Status == StatusPrivilegeNotHeld {
		return fmt.Sprintf("%s request rejected: the process does not hold %s: NTSTATUS %s",
			e.Action, models.ShutdownPrivilege, e.Status)
	}
	return fmt.Sprintf("%s request returned without shutting down: NTSTATUS %s", e.Action, e.Status)
}

func (e *ShutdownRequestError) Is(target error) bool { return target == ErrShutdownRequest }

// UnsupportedPlatformError reports that the forced shutdown primitives do not
// exist on the running platform.
type UnsupportedPlatformError struct {
	GOOS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("emergency shutdown is not supported on %s (windows only)", e.GOOS)
}

func (e *UnsupportedPlatformError) Is(target error) bool { return target == ErrUnsupportedPlatform }
