// Package shutdown forces an immediate halt, reboot or power-off through the
// kernel, bypassing the graceful shutdown sequence.
package shutdown

import (
	"runtime"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/rs/zerolog"
)

// SupportedGOOS is the only platform with the required primitives.
const SupportedGOOS = "windows"

// Service defines the interface for the privileged shutdown invoker.
type Service interface {
	// Shutdown does not return on success. The returned error is never nil.
	Shutdown(action models.ShutdownAction) error
	CheckPlatform() error
}

// Privileges resolves privileges and hands out the process token.
type Privileges interface {
	LookupPrivilege(name string) (models.PrivilegeID, error)
	OpenProcessToken() (Token, error)
}

// Token is the capability to change the privilege set of the current process.
type Token interface {
	EnablePrivilege(id models.PrivilegeID) error
	Close() error
}

// Kernel issues the forced shutdown request. It only returns when the
// request was not carried out.
type Kernel interface {
	RequestShutdown(flag Flag) Status
}

// Impl implements the shutdown Service interface.
type Impl struct {
	goos       string
	privileges Privileges
	kernel     Kernel
	logger     zerolog.Logger
}

// New creates a shutdown service bound to the running platform.
func New(logger zerolog.Logger) *Impl {
	privileges, kernel := newSystem()
	return &Impl{
		goos:       runtime.GOOS,
		privileges: privileges,
		kernel:     kernel,
		logger:     logger,
	}
}

// NewWithClients creates a shutdown service with custom collaborators (for testing).
func NewWithClients(logger zerolog.Logger, goos string, privileges Privileges, kernel Kernel) *Impl {
	return &Impl{
		goos:       goos,
		privileges: privileges,
		kernel:     kernel,
		logger:     logger,
	}
}

// CheckPlatform reports whether the forced shutdown can be attempted here.
func (s *Impl) CheckPlatform() error {
	if s.goos != SupportedGOOS {
		return &UnsupportedPlatformError{GOOS: s.goos}
	}
	return nil
}

// Shutdown enables the shutdown privilege and issues the forced request.
func (s *Impl) Shutdown(action models.ShutdownAction) error {
	if err := s.CheckPlatform(); err != nil {
		return err
	}

	if err := s.enableShutdownPrivilege(); err != nil {
		return err
	}

	flag := RequestFlag(action)

	s.logger.Warn().
		Stringer("action", action).
		Stringer("flag", flag).
		Msg("issuing forced shutdown request")

	status := s.kernel.RequestShutdown(flag)

	s.logger.Debug().Stringer("status", status).Msg("shutdown request returned")

	return &ShutdownRequestError{Action: action, Flag: flag, Status: status}
}

func (s *Impl) enableShutdownPrivilege() error {
	id, err := s.privileges.LookupPrivilege(models.ShutdownPrivilege)
	if err != nil {
		return &PrivilegeLookupError{Privilege: models.ShutdownPrivilege, Err: err}
	}

	s.logger.Debug().
		Str("privilege", models.ShutdownPrivilege).
		Stringer("id", id).
		Msg("privilege resolved")

	token, err := s.privileges.OpenProcessToken()
	if err != nil {
		return &PrivilegeAdjustmentError{Privilege: models.ShutdownPrivilege, Err: err}
	}
	defer func() { _ = token.Close() }()

	if err := token.EnablePrivilege(id); err != nil {
		return &PrivilegeAdjustmentError{Privilege: models.ShutdownPrivilege, Err: err}
	}

	s.logger.Debug().Str("privilege", models.ShutdownPrivilege).Msg("privilege enabled")

	return nil
}
