package domain

import "time"

// Session es un intervalo de foco registrado. Una vez insertada con duración
// distinta de cero contribuye exactamente una vez a las estadísticas del dueño.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TaskID    string     `json:"task_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  int        `json:"duration"` // minutos
	CreatedAt time.Time  `json:"created_at"`
}
