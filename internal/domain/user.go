package domain

import "time"

// Stats agrupa las métricas de foco derivadas de las sesiones de un usuario.
// Invariante: AverageFocusTime == TotalFocusTime/TotalSessions cuando
// TotalSessions > 0, y 0.0 en caso contrario.
type Stats struct {
	TotalFocusTime   int     `json:"total_focus_time"` // minutos
	TotalSessions    int     `json:"total_sessions"`
	AverageFocusTime float64 `json:"average_focus_time"`
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Country      string     `json:"country,omitempty"`
	Stats        Stats      `json:"stats"`
	IsActive     bool       `json:"is_active"`
	OtpCodeHash  string     `json:"-"`
	OtpPurpose   string     `json:"-"`
	OtpExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}
