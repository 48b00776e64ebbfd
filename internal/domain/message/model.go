package message

import (
	"time"

	"buildinspect/internal/domain/identity"
)

type Message struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	SenderID    int64          `gorm:"not null;index" json:"sender_id"`
	Sender      *identity.User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	RecipientID int64          `gorm:"not null;index:idx_messages_recipient_read" json:"recipient_id"`
	Recipient   *identity.User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
	Subject     string         `gorm:"size:200" json:"subject"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	IsRead      bool           `gorm:"not null;index:idx_messages_recipient_read" json:"is_read"`
	SentAt      time.Time      `gorm:"autoCreateTime" json:"sent_at"`
}

func (Message) TableName() string { return "messages" }
