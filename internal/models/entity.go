package models

import "time"

type EntityStatus string

const (
	StatusPending   EntityStatus = "pending"
	StatusRunning   EntityStatus = "running"
	StatusPaused    EntityStatus = "paused"
	StatusCompleted EntityStatus = "completed"
	StatusFailed    EntityStatus = "failed"
	StatusCancelled EntityStatus = "cancelled"
	StatusRejected  EntityStatus = "rejected"
)

// Terminal — статус, из которого бэкенд сам ничего не меняет.
func (s EntityStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// TrackedEntity — job или bot, живёт на бэкенде, у нас только зеркало.
type TrackedEntity struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"` // job | bot
	Name      string       `json:"name"`
	Symbol    string       `json:"symbol"`
	Status    EntityStatus `json:"status"`
	Progress  float64      `json:"progress"`
	Detail    string       `json:"detail"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Action string

const (
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionCancel  Action = "cancel"
	ActionDelete  Action = "delete"
	ActionRetrain Action = "retrain"
)

// ActionRequest — тело мутирующего запроса. Checkpoint только для resume.
type ActionRequest struct {
	Checkpoint string `json:"checkpoint,omitempty"`
}

type ActionResult struct {
	Message  string `json:"message"`
	NewJobID string `json:"new_job_id"`
}
