package domain

import "time"

// Idempotency records a completed poem submission made under an
// Idempotency-Key, so a retried POST returns the same poem and deletion key
// instead of storing a duplicate. Records are unique per (nick, key) and are
// ignored once ExpiresAt has passed.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Nick      string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_idem_nick_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_nick_key,priority:2"`
	PoemID    string    `gorm:"type:char(36);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
