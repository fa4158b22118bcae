package models

import (
	"time"
)

// StoredMessage is the persisted view of a conversation turn. Transient
// fields (isOld, extracted directives) are stripped before write; the
// permanent welcome message is never stored.
type StoredMessage struct {
	Seq       uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	MessageID string    `json:"id" gorm:"type:varchar(64);not null"`
	Role      string    `json:"role" gorm:"type:varchar(16);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

func (StoredMessage) TableName() string { return "messages" }
