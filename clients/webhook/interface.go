package webhook

import (
	"context"
	"time"
)

// Command is one transcribed voice command forwarded downstream.
type Command struct {
	ID         string    `json:"id"`
	Keyword    string    `json:"keyword"`
	Transcript string    `json:"transcript"`
	CapturedAt time.Time `json:"captured_at"`
}

// WebhookAPI forwards transcribed commands to an external HTTP endpoint.
type WebhookAPI interface {
	SendCommand(ctx context.Context, cmd Command) error
}
