package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
)

const replyPrefix = "Re: "

var ErrEmptyBody = errors.New("message body is required")

// Directory looks up principals and profiles.
type Directory interface {
	GetUser(ctx context.Context, userID int64) (*identity.User, error)
	ListByRoles(ctx context.Context, roles ...identity.Role) ([]identity.Profile, error)
}

type Service struct {
	db      *gorm.DB
	users   Directory
	loggerf func(format string, args ...interface{})
}

func NewService(db *gorm.DB, users Directory) *Service {
	return &Service{db: db, users: users, loggerf: log.Printf}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

type SendInput struct {
	RecipientID int64
	Subject     string
	Body        string
}

func (s *Service) Send(ctx context.Context, senderID int64, in SendInput) (*Message, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrEmptyBody)
	}
	if _, err := s.users.GetUser(ctx, in.RecipientID); err != nil {
		return nil, fmt.Errorf("recipient %d: %w", in.RecipientID, err)
	}

	m := &Message{
		SenderID:    senderID,
		RecipientID: in.RecipientID,
		Subject:     strings.TrimSpace(in.Subject),
		Body:        in.Body,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=message sent message_id=%d sender_id=%d recipient_id=%d", m.ID, senderID, in.RecipientID)
	return m, nil
}

// Reply sends a new message back to the original sender.
func (s *Service) Reply(ctx context.Context, actorID, messageID int64, body string) (*Message, error) {
	orig, err := s.View(ctx, actorID, messageID)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, actorID, SendInput{
		RecipientID: orig.SenderID,
		Subject:     replyPrefix + orig.Subject,
		Body:        body,
	})
}

func (s *Service) Inbox(ctx context.Context, userID int64) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ?", userID).
		Order("sent_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) Sent(ctx context.Context, userID int64) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("sender_id = ?", userID).
		Order("sent_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

// View returns a message to one of its participants. The recipient opening
// it marks it read.
func (s *Service) View(ctx context.Context, actorID, messageID int64) (*Message, error) {
	m, err := s.get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != actorID && m.RecipientID != actorID {
		return nil, fmt.Errorf("message %d: %w", messageID, domain.ErrForbidden)
	}

	if m.RecipientID == actorID && !m.IsRead {
		if err := s.setRead(ctx, m, true); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MarkRead toggles is_read. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, actorID, messageID int64, read bool) (*Message, error) {
	m, err := s.get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.RecipientID != actorID {
		return nil, fmt.Errorf("only the recipient may change message %d: %w", messageID, domain.ErrForbidden)
	}
	if err := s.setRead(ctx, m, read); err != nil {
		return nil, err
	}
	return m, nil
}

// Recipients is the compose pool: admins and inspectors other than userID.
func (s *Service) Recipients(ctx context.Context, userID int64) ([]identity.Profile, error) {
	ps, err := s.users.ListByRoles(ctx, identity.RoleAdmin, identity.RoleInspector)
	if err != nil {
		return nil, err
	}
	out := ps[:0]
	for _, p := range ps {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// PurgeUser deletes every message the user sent or received.
func (s *Service) PurgeUser(tx *gorm.DB, userID int64) error {
	return tx.Where("sender_id = ? OR recipient_id = ?", userID, userID).Delete(&Message{}).Error
}

func (s *Service) get(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := s.db.WithContext(ctx).Preload("Sender").Preload("Recipient").First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) setRead(ctx context.Context, m *Message, read bool) error {
	if err := s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", m.ID).Update("is_read", read).Error; err != nil {
		return err
	}
	m.IsRead = read
	return nil
}
