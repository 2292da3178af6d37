package tokenstore

import (
	"time"
)

// UserToken is the single durable token row per account. Three logically
// independent sub-records share it: the access pair, the refresh pair, and
// the password-reset pair. Store operations are column-scoped so updating
// one sub-record can never blank another.
type UserToken struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	UserID                uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	AccessToken           string     `json:"-" gorm:"size:1000"`
	AccessTokenExpiresAt  *time.Time `json:"access_token_expires_at"`
	RefreshToken          string     `json:"-" gorm:"size:1000;index"`
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at"`
	ResetToken            string     `json:"-" gorm:"size:255"`
	ResetTokenExpiresAt   *time.Time `json:"reset_token_expires_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}

// TokenPairUpdate carries the access/refresh columns to merge into an
// existing row. Nil fields are left untouched.
type TokenPairUpdate struct {
	AccessToken           *string
	AccessTokenExpiresAt  *time.Time
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
}
