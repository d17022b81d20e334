// Package runner orchestrates one emergency shutdown invocation.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/fgeck/emergency-shutdown/internal/services/shutdown"
	"github.com/fgeck/emergency-shutdown/internal/services/telegram"
	"github.com/rs/zerolog"
)

// Service defines the interface for the shutdown runner.
type Service interface {
	// Run only returns when the machine did not go down.
	Run(ctx context.Context, cfg models.Config, action models.ShutdownAction) error
}

// Impl implements the runner Service interface.
type Impl struct {
	shutdownSvc shutdown.Service
	telegramSvc telegram.Service
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		shutdownSvc: shutdown.New(logger),
		telegramSvc: telegram.New(logger),
		logger:      logger,
		now:         time.Now,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(logger zerolog.Logger, shutdownSvc shutdown.Service, telegramSvc telegram.Service) *Impl {
	return &Impl{
		shutdownSvc: shutdownSvc,
		telegramSvc: telegramSvc,
		logger:      logger,
		now:         time.Now,
	}
}

// Run checks the platform, announces the shutdown if configured and hands
// over to the invoker.
func (s *Impl) Run(ctx context.Context, cfg models.Config, action models.ShutdownAction) error {
	if !action.Valid() {
		return fmt.Errorf("unknown shutdown action %s", action)
	}

	if err := s.shutdownSvc.CheckPlatform(); err != nil {
		return err
	}

	s.logger.Warn().
		Stringer("action", action).
		Str("host", cfg.Host).
		Msg("emergency shutdown requested")

	if cfg.Telegram != nil {
		s.notify(ctx, cfg, models.TelegramMessage{
			Stage:  models.StageRequested,
			Host:   cfg.Host,
			Action: action,
			Time:   s.now(),
		})
	}

	err := s.shutdownSvc.Shutdown(action)
	if err == nil {
		err = fmt.Errorf("emergency %s returned without an error", action)
	}

	if cfg.Telegram != nil {
		s.notify(ctx, cfg, models.TelegramMessage{
			Stage:        models.StageFailed,
			Host:         cfg.Host,
			Action:       action,
			Time:         s.now(),
			ErrorMessage: err.Error(),
		})
	}

	return err
}

// notify is best effort: a failed notification never holds up the shutdown
// for longer than models.MaxNotifyTimeout.
func (s *Impl) notify(ctx context.Context, cfg models.Config, msg models.TelegramMessage) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout(cfg))
	defer cancel()

	result, err := s.telegramSvc.SendNotification(ctx, *cfg.Telegram, msg)
	if err != nil {
		s.logger.Error().Err(err).Str("stage", string(msg.Stage)).Msg("failed to send Telegram notification")
		return
	}
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Str("stage", string(msg.Stage)).Msg("failed to send Telegram notification")
		return
	}

	s.logger.Info().Str("stage", string(msg.Stage)).Msg("Telegram notification sent")
}

func notifyTimeout(cfg models.Config) time.Duration {
	if cfg.NotifyTimeout <= 0 || cfg.NotifyTimeout > models.MaxNotifyTimeout {
		return models.MaxNotifyTimeout
	}
	return cfg.NotifyTimeout
}
