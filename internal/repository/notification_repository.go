package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
)

type NotificationRepository interface {
	// Create 写入通知并加载 notifyee / notifyer
	Create(ctx context.Context, n *model.Notification) error
	ListForNotifyee(ctx context.Context, notifyeeID string) ([]model.Notification, error)
	// DeleteOwned 仅删除属于 notifyeeID 的通知，不存在时返回 gorm.ErrRecordNotFound
	DeleteOwned(ctx context.Context, id, notifyeeID string) (*model.Notification, error)
	CountForNotifyee(ctx context.Context, notifyeeID string) (int64, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Omit("Notifyee", "Notifyer").Create(n).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Notifyee").Preload("Notifyer").Where("id = ?", n.ID).Take(n).Error
}

func (r *notificationRepository) ListForNotifyee(ctx context.Context, notifyeeID string) ([]model.Notification, error) {
	var res []model.Notification
	err := r.db.WithContext(ctx).
		Preload("Notifyee").Preload("Notifyer").
		Where("notifyee_id = ?", notifyeeID).
		Order("created_at DESC").Order("id DESC").
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) DeleteOwned(ctx context.Context, id, notifyeeID string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Notifyee").Preload("Notifyer").
			Where("id = ? AND notifyee_id = ?", id, notifyeeID).
			Take(&n).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", n.ID).Delete(&model.Notification{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) CountForNotifyee(ctx context.Context, notifyeeID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).Where("notifyee_id = ?", notifyeeID).Count(&cnt).Error
	return cnt, err
}
