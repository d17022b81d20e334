package shutdown

import (
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations.
type mockToken struct {
	enableFunc func(id models.PrivilegeID) error
	closed     bool
}

func (m *mockToken) EnablePrivilege(id models.PrivilegeID) error {
	if m.enableFunc != nil {
		return m.enableFunc(id)
	}
	return nil
}

func (m *mockToken) Close() error {
	m.closed = true
	return nil
}

type mockPrivileges struct {
	lookupFunc func(name string) (models.PrivilegeID, error)
	openFunc   func() (Token, error)
	calls      []string
}

func (m *mockPrivileges) LookupPrivilege(name string) (models.PrivilegeID, error) {
	m.calls = append(m.calls, "lookup")
	if m.lookupFunc != nil {
		return m.lookupFunc(name)
	}
	return models.PrivilegeID{LowPart: 19}, nil
}

func (m *mockPrivileges) OpenProcessToken() (Token, error) {
	m.calls = append(m.calls, "open")
	if m.openFunc != nil {
		return m.openFunc()
	}
	return &mockToken{}, nil
}

type mockKernel struct {
	requestFunc func(flag Flag) Status
	flags       []Flag
}

func (m *mockKernel) RequestShutdown(flag Flag) Status {
	m.flags = append(m.flags, flag)
	if m.requestFunc != nil {
		return m.requestFunc(flag)
	}
	return StatusSuccess
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestRequestFlag_Mapping(t *testing.T) {
	tests := []struct {
		action models.ShutdownAction
		want   Flag
	}{
		{models.NoReboot, FlagHalt},
		{models.Reboot, FlagHaltAndRestart},
		{models.PowerOff, FlagHaltAndPowerOff},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, RequestFlag(tt.action))
			// Pure: same input, same output.
			assert.Equal(t, RequestFlag(tt.action), RequestFlag(tt.action))
		})
	}
}

func TestRequestFlag_Injective(t *testing.T) {
	seen := make(map[Flag]models.ShutdownAction)
	for _, action := range models.ShutdownActions {
		flag := RequestFlag(action)
		prev, dup := seen[flag]
		assert.False(t, dup, "%s and %s map to the same flag %s", prev, action, flag)
		seen[flag] = action
	}
	assert.Len(t, seen, 3)
}

func TestRequestFlag_UnknownActionPanics(t *testing.T) {
	assert.Panics(t, func() { RequestFlag(models.ShutdownAction(42)) })
}

func TestShutdown_UnsupportedPlatform(t *testing.T) {
	privileges := &mockPrivileges{}
	kernel := &mockKernel{}

	svc := NewWithClients(testLogger(), "linux", privileges, kernel)

	err := svc.Shutdown(models.PowerOff)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	var platformErr *UnsupportedPlatformError
	require.ErrorAs(t, err, &platformErr)
	assert.Equal(t, "linux", platformErr.GOOS)

	assert.Empty(t, privileges.calls, "no privilege operation may run on an unsupported platform")
	assert.Empty(t, kernel.flags)
}

func TestShutdown_LookupFailed(t *testing.T) {
	privileges := &mockPrivileges{
		lookupFunc: func(name string) (models.PrivilegeID, error) {
			return models.PrivilegeID{}, errors.New("A specified privilege does not exist.")
		},
	}
	kernel := &mockKernel{}

	svc := NewWithClients(testLogger(), SupportedGOOS, privileges, kernel)

	err := svc.Shutdown(models.Reboot)

	assert.ErrorIs(t, err, ErrPrivilegeLookup)
	var lookupErr *PrivilegeLookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, models.ShutdownPrivilege, lookupErr.Privilege)
	assert.Contains(t, err.Error(), "does not exist")

	assert.Equal(t, []string{"lookup"}, privileges.calls)
	assert.Empty(t, kernel.flags)
}

func TestShutdown_LooksUpShutdownPrivilege(t *testing.T) {
	var capturedName string
	var capturedID models.PrivilegeID

	token := &mockToken{
		enableFunc: func(id models.PrivilegeID) error {
			capturedID = id
			return nil
		},
	}
	privileges := &mockPrivileges{
		lookupFunc: func(name string) (models.PrivilegeID, error) {
			capturedName = name
			return models.PrivilegeID{LowPart: 19, HighPart: 0}, nil
		},
		openFunc: func() (Token, error) { return token, nil },
	}

	svc := NewWithClients(testLogger(), SupportedGOOS, privileges, &mockKernel{})

	_ = svc.Shutdown(models.PowerOff)

	assert.Equal(t, "SeShutdownPrivilege", capturedName)
	assert.Equal(t, models.PrivilegeID{LowPart: 19}, capturedID)
	assert.True(t, token.closed)
}

func TestShutdown_OpenTokenFailed(t *testing.T) {
	privileges := &mockPrivileges{
		openFunc: func() (Token, error) {
			return nil, errors.New("Access is denied.")
		},
	}
	kernel := &mockKernel{}

	svc := NewWithClients(testLogger(), SupportedGOOS, privileges, kernel)

	err := svc.Shutdown(models.NoReboot)

	assert.ErrorIs(t, err, ErrPrivilegeAdjustment)
	assert.Empty(t, kernel.flags)
}

func TestShutdown_AdjustmentFailed_NeverReachesKernel(t *testing.T) {
	notAssigned := errors.New("Not all privileges or groups referenced are assigned to the caller.")
	token := &mockToken{
		enableFunc: func(id models.PrivilegeID) error { return notAssigned },
	}
	privileges := &mockPrivileges{
		openFunc: func() (Token, error) { return token, nil },
	}
	kernel := &mockKernel{}

	svc := NewWithClients(testLogger(), SupportedGOOS, privileges, kernel)

	for _, action := range models.ShutdownActions {
		err := svc.Shutdown(action)

		assert.ErrorIs(t, err, ErrPrivilegeAdjustment)
		assert.ErrorIs(t, err, notAssigned)
		assert.NotErrorIs(t, err, ErrShutdownRequest)
	}

	assert.Empty(t, kernel.flags)
	assert.True(t, token.closed)
}

func TestShutdown_RequestFailed_CarriesStatus(t *testing.T) {
	kernel := &mockKernel{
		requestFunc: func(flag Flag) Status { return StatusPrivilegeNotHeld },
	}

	svc := NewWithClients(testLogger(), SupportedGOOS, &mockPrivileges{}, kernel)

	err := svc.Shutdown(models.PowerOff)

	assert.ErrorIs(t, err, ErrShutdownRequest)
	var reqErr *ShutdownRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, StatusPrivilegeNotHeld, reqErr.Status)
	assert.Equal(t, models.PowerOff, reqErr.Action)
	assert.Equal(t, FlagHaltAndPowerOff, reqErr.Flag)
	assert.Contains(t, err.Error(), "0xC0000061")
	assert.Equal(t, []Flag{FlagHaltAndPowerOff}, kernel.flags)
}

func TestShutdown_RequestReturnedSuccess_StillAnError(t *testing.T) {
	svc := NewWithClients(testLogger(), SupportedGOOS, &mockPrivileges{}, &mockKernel{})

	err := svc.Shutdown(models.NoReboot)

	var reqErr *ShutdownRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, StatusSuccess, reqErr.Status)
	assert.Contains(t, err.Error(), "returned without shutting down")
}

func TestShutdown_Reboot_DoesNotReturn(t *testing.T) {
	privileges := &mockPrivileges{}
	kernel := &mockKernel{
		// The machine going down ends the caller; Goexit stands in for that.
		requestFunc: func(flag Flag) Status {
			runtime.Goexit()
			return StatusSuccess
		},
	}

	svc := NewWithClients(testLogger(), SupportedGOOS, privileges, kernel)

	returned := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Shutdown(models.Reboot)
		returned = true
	}()
	<-done

	assert.False(t, returned, "control must not come back after an accepted request")
	assert.Equal(t, []string{"lookup", "open"}, privileges.calls)
	assert.Equal(t, []Flag{FlagHaltAndRestart}, kernel.flags)
}

func TestCheckPlatform(t *testing.T) {
	assert.NoError(t, NewWithClients(testLogger(), "windows", nil, nil).CheckPlatform())
	assert.ErrorIs(t, NewWithClients(testLogger(), "darwin", nil, nil).CheckPlatform(), ErrUnsupportedPlatform)
}

func TestNew_BindsRunningPlatform(t *testing.T) {
	svc := New(testLogger())

	assert.Equal(t, runtime.GOOS, svc.goos)
	if runtime.GOOS != SupportedGOOS {
		err := svc.Shutdown(models.PowerOff)
		assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "0xC0000061 (STATUS_PRIVILEGE_NOT_HELD)", StatusPrivilegeNotHeld.String())
	assert.Equal(t, "0x00000000 (STATUS_SUCCESS)", StatusSuccess.String())
	assert.Equal(t, "0xC0000005", Status(0xC0000005).String())
}

func TestFlag_String(t *testing.T) {
	assert.Equal(t, "halt", FlagHalt.String())
	assert.Equal(t, "halt-and-restart", FlagHaltAndRestart.String())
	assert.Equal(t, "halt-and-power-off", FlagHaltAndPowerOff.String())
	assert.Equal(t, "Flag(7)", Flag(7).String())
}
