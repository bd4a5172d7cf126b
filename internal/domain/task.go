package domain

import "time"

const (
	TaskStatusActive   = "active"
	TaskStatusDisabled = "disabled"
)

type Task struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	EstimatedPomodoros int       `json:"estimated_pomodoros"`
	ProjectID          string    `json:"project_id,omitempty"`
	TagIDs             []string  `json:"tag_ids"`
	Color              string    `json:"color"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}
