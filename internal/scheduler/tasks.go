// Package scheduler defines the asynq task types exchanged between the API
// process and the worker, plus the client and server wrappers around them.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names. The worker routes on these.
const (
	TypeNotificationEmail = "email:notification"
)

// Queue names.
const (
	QueueEmails = "emails"
)

// NotificationEmailPayload carries one notification email to the worker.
type NotificationEmailPayload struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NewNotificationEmailTask builds the asynq task for a notification email.
func NewNotificationEmailTask(p NotificationEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode notification email payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationEmail, payload), nil
}
