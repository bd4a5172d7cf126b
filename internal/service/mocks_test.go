package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"pomodoro-api/internal/domain"
	"pomodoro-api/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByIDLocked(id)
}

func (m *mockUserRepo) getByIDLocked(id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.getByIDLocked(id)
}

func (m *mockUserRepo) UpdateOTP(_ context.Context, id, otpHash, purpose string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.OtpCodeHash = otpHash
	user.OtpPurpose = purpose
	user.OtpExpiresAt = &expiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) ClearOTP(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.OtpCodeHash = ""
	user.OtpPurpose = ""
	user.OtpExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Activate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsActive = true
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, updated domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[updated.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PhoneNumber = updated.PhoneNumber
	user.Gender = updated.Gender
	user.DateOfBirth = updated.DateOfBirth
	user.Country = updated.Country
	m.usersByID[updated.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, user.Email)
	return nil
}

// incrementStats emula el incremento relativo que hace la base de datos
// dentro de la transacción de RecordWithStats.
func (m *mockUserRepo) incrementStats(id string, duration int) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.Stats{}, pgx.ErrNoRows
	}
	user.Stats.TotalFocusTime += duration
	user.Stats.TotalSessions++
	user.Stats.AverageFocusTime = float64(user.Stats.TotalFocusTime) / float64(user.Stats.TotalSessions)
	m.usersByID[id] = user
	return user.Stats, nil
}

func (m *mockUserRepo) setOTPExpiry(id string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.usersByID[id]
	user.OtpExpiresAt = &expiresAt
	m.usersByID[id] = user
}

type mockSessionRepo struct {
	mu       sync.Mutex
	users    *mockUserRepo
	sessions map[string]domain.Session
}

func newMockSessionRepo(users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{
		users:    users,
		sessions: make(map[string]domain.Session),
	}
}

func (m *mockSessionRepo) RecordWithStats(_ context.Context, session domain.Session) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; ok {
		return domain.Stats{}, repository.ErrSessionExists
	}
	stats, err := m.users.incrementStats(session.UserID, session.Duration)
	if err != nil {
		return domain.Stats{}, err
	}
	m.sessions[session.ID] = session
	return stats, nil
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sessions []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

type mockEmailSender struct {
	mu          sync.Mutex
	lastTo      string
	lastCode    string
	lastExpires time.Time
	sendCount   int
	err         error
}

func (m *mockEmailSender) SendOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.lastCode = code
	m.lastExpires = expiresAt
	m.sendCount++
	return m.err
}

func (m *mockEmailSender) last() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTo, m.lastCode
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(_ string) bool {
	return m.allow
}
