package session

import (
	"time"
)

// Session is the durable server-side login record, independent of the
// bearer-token pair. Created on login, destroyed on logout, swept after its
// TTL elapses.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	LoggedIn  bool      `json:"logged_in" gorm:"not null;default:false"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}

func (Session) TableName() string {
	return "sessions"
}

// SessionService manages durable session records.
type SessionService interface {
	Create(userID uint, ipAddress, userAgent string) (*Session, error)

	ReadBySessionID(id string) (*Session, error)

	Destroy(sessionID string) error

	DestroyByUserID(userID uint) error

	SweepExpired() error
}
