//go:build windows

package shutdown

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"golang.org/x/sys/windows"
)

var (
	advapi32 = windows.NewLazySystemDLL("advapi32.dll")
	ntdll    = windows.NewLazySystemDLL("ntdll.dll")

	// Called directly instead of windows.AdjustTokenPrivileges so that
	// ERROR_NOT_ALL_ASSIGNED, which comes back with a non-zero result, is visible.
	procAdjustTokenPrivileges = advapi32.NewProc("AdjustTokenPrivileges")
	procNtShutdownSystem      = ntdll.NewProc("NtShutdownSystem")
)

type windowsPrivileges struct{}

type windowsToken struct {
	token windows.Token
}

type windowsKernel struct{}

func newSystem() (Privileges, Kernel) {
	return windowsPrivileges{}, windowsKernel{}
}

func (windowsPrivileges) LookupPrivilege(name string) (models.PrivilegeID, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return models.PrivilegeID{}, err
	}

	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, namePtr, &luid); err != nil {
		return models.PrivilegeID{}, err
	}

	return models.PrivilegeID{LowPart: luid.LowPart, HighPart: luid.HighPart}, nil
}

func (windowsPrivileges) OpenProcessToken() (Token, error) {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return nil, fmt.Errorf("failed to open process token: %w", err)
	}
	return &windowsToken{token: token}, nil
}

func (t *windowsToken) EnablePrivilege(id models.PrivilegeID) error {
	tp := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{
				Luid:       windows.LUID{LowPart: id.LowPart, HighPart: id.HighPart},
				Attributes: windows.SE_PRIVILEGE_ENABLED,
			},
		},
	}

	ret, _, err := procAdjustTokenPrivileges.Call(
		uintptr(t.token),
		0,
		uintptr(unsafe.Pointer(&tp)),
		0,
		0,
		0,
	)
	if ret == 0 {
		return err
	}
	if errors.Is(err, windows.ERROR_NOT_ALL_ASSIGNED) {
		return err
	}

	return nil
}

func (t *windowsToken) Close() error {
	return t.token.Close()
}

func (windowsKernel) RequestShutdown(flag Flag) Status {
	if err := procNtShutdownSystem.Find(); err != nil {
		return StatusProcedureNotFound
	}

	ret, _, _ := procNtShutdownSystem.Call(uintptr(flag))
	return Status(uint32(ret))
}
