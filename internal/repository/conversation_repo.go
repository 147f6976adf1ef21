package repository

import (
	"context"
	"time"

	"infinity/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindDirect returns the id of a conversation shared by a and b.
func (r *ConversationRepository) FindDirect(ctx context.Context, a, b uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("conversation_participants cp1").
		Select("cp1.conversation_id").
		Joins("INNER JOIN conversation_participants cp2 ON cp2.conversation_id = cp1.conversation_id").
		Where("cp1.user_id = ? AND cp2.user_id = ?", a, b).
		Order("cp1.conversation_id").
		Limit(1).
		Pluck("cp1.conversation_id", &ids).Error
	if err != nil {
		return 0, storeErr(err)
	}
	if len(ids) == 0 {
		return 0, storeErr(gorm.ErrRecordNotFound)
	}
	return ids[0], nil
}

// CreateDirect creates a conversation with both participants in one transaction.
// A second conversation for the same pair fails with domain.ErrConflict.
func (r *ConversationRepository) CreateDirect(ctx context.Context, a, b uint) (*models.Conversation, error) {
	key := models.PairKey(a, b)
	conv := &models.Conversation{
		PairKey:      &key,
		Participants: []models.ConversationParticipant{{UserID: a}, {UserID: b}},
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(conv).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return conv, nil
}

// ListForUser returns the conversations userID participates in.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.ConversationParticipant{}).Select("conversation_id").Where("user_id = ?", userID)).
		Find(&list).Error
	return list, storeErr(err)
}

func (r *ConversationRepository) Participants(ctx context.Context, conversationIDs []uint) ([]models.ConversationParticipant, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	var rows []models.ConversationParticipant
	err := r.db.WithContext(ctx).Where("conversation_id IN ?", conversationIDs).Find(&rows).Error
	return rows, storeErr(err)
}

// LastMessages returns the newest message of each conversation, keyed by conversation id.
func (r *ConversationRepository) LastMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error) {
	out := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	latest := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")
	var rows []models.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	for _, m := range rows {
		out[m.ConversationID] = m
	}
	return out, nil
}

type unreadRow struct {
	ConversationID uint
	N              int64
}

// UnreadCounts counts messages not sent by viewerID without a read receipt.
func (r *ConversationRepository) UnreadCounts(ctx context.Context, viewerID uint, conversationIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var rows []unreadRow
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ? AND sender_id <> ? AND read_at IS NULL", conversationIDs, viewerID).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	for _, row := range rows {
		out[row.ConversationID] = row.N
	}
	return out, nil
}

func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&c).Error
	return c > 0, storeErr(err)
}

func (r *ConversationRepository) ParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, storeErr(err)
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	return storeErr(r.db.WithContext(ctx).Create(m).Error)
}

// ListMessages returns up to limit messages older than beforeID (0 = newest), oldest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uint, limit int, beforeID uint) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var list []models.Message
	if err := q.Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, storeErr(err)
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// MarkMessagesRead stamps every unread message addressed to viewerID. Already read rows keep their time.
func (r *ConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, viewerID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, viewerID).
		Update("read_at", at)
	return res.RowsAffected, storeErr(res.Error)
}
