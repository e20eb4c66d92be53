package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/dto"
)

type NotificationService interface {
	List(ctx context.Context, userID string) ([]dto.Notification, error)
	// Delete 只有 notifyee 本人可以删除，其余情况一律视为不存在
	Delete(ctx context.Context, userID, id string) (*dto.Notification, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(db *gorm.DB) NotificationService {
	return &notificationService{notifications: repository.NewNotificationRepository(db)}
}

func miniProfile(u model.User) dto.MiniProfile {
	return dto.MiniProfile{ID: u.ID, Name: u.Name, Image: u.Image, Email: u.Email}
}

func notificationView(n model.Notification) dto.Notification {
	return dto.Notification{
		ID:           n.ID,
		Type:         string(n.Type),
		ResourcePath: n.ResourcePath,
		ResourceID:   n.ResourceID,
		CreatedAt:    n.CreatedAt,
		Notifyee:     miniProfile(n.Notifyee),
		Notifyer:     miniProfile(n.Notifyer),
	}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]dto.Notification, error) {
	rows, err := s.notifications.ListForNotifyee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]dto.Notification, 0, len(rows))
	for _, n := range rows {
		out = append(out, notificationView(n))
	}
	return out, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) (*dto.Notification, error) {
	n, err := s.notifications.DeleteOwned(ctx, id, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("delete notification %s: %w", id, err)
	}
	view := notificationView(*n)
	return &view, nil
}
