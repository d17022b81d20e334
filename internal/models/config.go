// Package models contains the data structures used throughout emergency-shutdown.
package models

import "time"

// MaxNotifyTimeout is the longest a notification may hold up the shutdown request.
const MaxNotifyTimeout = 2 * time.Second

// Config holds the optional settings read from the configuration file.
type Config struct {
	Host          string          // name reported in notifications, defaults to the OS hostname
	NotifyTimeout time.Duration   // upper bound for each notification attempt, at most MaxNotifyTimeout
	Telegram      *TelegramConfig // nil if not configured
}
