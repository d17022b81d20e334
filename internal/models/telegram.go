package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// NotificationStage tells which point of the shutdown a message describes.
type NotificationStage string

const (
	// StageRequested is sent right before the kernel request is issued.
	StageRequested NotificationStage = "requested"
	// StageFailed is sent when the invoker returned an error.
	StageFailed NotificationStage = "failed"
)

// TelegramMessage holds the data for a shutdown notification.
type TelegramMessage struct {
	Stage  NotificationStage
	Host   string
	Action ShutdownAction
	Time   time.Time

	// Error info (StageFailed only).
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
