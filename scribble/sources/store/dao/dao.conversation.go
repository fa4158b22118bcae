package dao

import (
	"context"

	"gorm.io/gorm"

	"scribble/scribble/sources/store/models"
)

type ConversationDAO struct {
	DB *gorm.DB
}

func NewConversationDAO(db *gorm.DB) *ConversationDAO {
	return &ConversationDAO{DB: db}
}

// Replace overwrites the stored conversation with the given snapshot,
// keeping only the most recent cap entries (oldest dropped first).
func (dao *ConversationDAO) Replace(ctx context.Context, msgs []models.StoredMessage, limit int) error {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.StoredMessage{}).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		// zero Seq so autoincrement re-numbers in slice order
		for i := range msgs {
			msgs[i].Seq = 0
		}
		return tx.Create(&msgs).Error
	})
}

// Load returns the stored conversation in insertion order.
func (dao *ConversationDAO) Load(ctx context.Context) ([]models.StoredMessage, error) {
	var msgs []models.StoredMessage
	err := dao.DB.WithContext(ctx).Order("seq ASC").Find(&msgs).Error
	return msgs, err
}

// Clear wipes the stored conversation.
func (dao *ConversationDAO) Clear(ctx context.Context) error {
	return dao.DB.WithContext(ctx).Where("1 = 1").Delete(&models.StoredMessage{}).Error
}
