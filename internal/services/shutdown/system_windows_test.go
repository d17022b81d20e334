//go:build windows

package shutdown

import (
	"testing"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These exercise the real privilege calls. The kernel request is never made.

func TestWindowsPrivileges_LookupShutdownPrivilege(t *testing.T) {
	privileges, _ := newSystem()

	id, err := privileges.LookupPrivilege(models.ShutdownPrivilege)

	require.NoError(t, err)
	assert.NotEqual(t, models.PrivilegeID{}, id)
}

func TestWindowsPrivileges_LookupUnknownPrivilege(t *testing.T) {
	privileges, _ := newSystem()

	_, err := privileges.LookupPrivilege("SeNoSuchPrivilegeForTesting")

	assert.Error(t, err)
}

func TestWindowsPrivileges_OpenProcessToken(t *testing.T) {
	privileges, _ := newSystem()

	token, err := privileges.OpenProcessToken()

	require.NoError(t, err)
	assert.NoError(t, token.Close())
}

func TestWindowsKernel_ProcedureResolves(t *testing.T) {
	assert.NoError(t, procNtShutdownSystem.Find())
	assert.NoError(t, procAdjustTokenPrivileges.Find())
}
