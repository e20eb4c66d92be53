package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/cache"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/dto"
)

// ProfileService 用户资料与关注关系
type ProfileService interface {
	GetByID(ctx context.Context, viewerID, id string) (*dto.Profile, error)
	GetFollowers(ctx context.Context, userID string) ([]dto.MiniProfile, error)
	GetFollows(ctx context.Context, userID string) ([]dto.MiniProfile, error)
	ToggleFollow(ctx context.Context, actorID, targetID string) (*dto.FollowResult, error)
	InfiniteProfiles(ctx context.Context, viewerID, searchTerm string, limit int, cursor *dto.ProfileCursor) (*dto.ProfilePage, error)
}

type profileService struct {
	db            *gorm.DB
	users         repository.UserRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	profiles      *cache.ProfileCache
	publisher     EventPublisher
}

func NewProfileService(db *gorm.DB, profiles *cache.ProfileCache, publisher EventPublisher) ProfileService {
	users := repository.NewUserRepository(db)
	if profiles == nil {
		profiles = cache.NewProfileCache(users, nil, 0)
	}
	return &profileService{
		db:            db,
		users:         users,
		follows:       repository.NewFollowRepository(db),
		notifications: repository.NewNotificationRepository(db),
		profiles:      profiles,
		publisher:     publisherOrNop(publisher),
	}
}

func profileView(r repository.ProfileRow) dto.Profile {
	return dto.Profile{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Image:          r.Image,
		FollowersCount: int(r.FollowersCount),
		FollowsCount:   int(r.FollowsCount),
		TweetsCount:    int(r.TweetsCount),
		IsFollowing:    r.IsFollowing > 0,
	}
}

func (s *profileService) GetByID(ctx context.Context, viewerID, id string) (*dto.Profile, error) {
	row, err := s.users.GetProfile(ctx, id, viewerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	p := profileView(*row)
	return &p, nil
}

func (s *profileService) GetFollowers(ctx context.Context, userID string) ([]dto.MiniProfile, error) {
	ids, err := s.follows.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return s.profiles.MiniProfiles(ctx, ids)
}

func (s *profileService) GetFollows(ctx context.Context, userID string) ([]dto.MiniProfile, error) {
	ids, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return s.profiles.MiniProfiles(ctx, ids)
}

// ToggleFollow 关注边与通知在同一事务内写入；取消关注不产生通知
func (s *profileService) ToggleFollow(ctx context.Context, actorID, targetID string) (*dto.FollowResult, error) {
	if actorID == targetID {
		return nil, ErrFollowSelf
	}
	if _, err := s.users.GetProfile(ctx, targetID, actorID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", targetID, err)
	}

	var (
		added        bool
		notification *model.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := s.follows.WithTx(tx)
		removed, err := follows.Delete(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
		if err := follows.Create(ctx, actorID, targetID); err != nil {
			return err
		}
		added = true
		notification = &model.Notification{
			ID:           uuid.New().String(),
			NotifyeeID:   targetID,
			NotifyerID:   actorID,
			Type:         model.NotificationNewFollower,
			ResourcePath: "profiles",
			ResourceID:   actorID,
			CreatedAt:    model.Now(),
		}
		return s.notifications.WithTx(tx).Create(ctx, notification)
	})
	if err != nil {
		return nil, fmt.Errorf("toggle follow: %w", err)
	}

	if notification != nil {
		s.publisher.Publish(dto.ChannelNotification, dto.EventNotificationNew,
			dto.NotificationEvent{Notification: notificationView(*notification)})
	}
	return &dto.FollowResult{AddedFollow: added}, nil
}

func (s *profileService) InfiniteProfiles(ctx context.Context, viewerID, searchTerm string, limit int, cursor *dto.ProfileCursor) (*dto.ProfilePage, error) {
	limit = clampLimit(limit)
	cursorID := ""
	if cursor != nil {
		cursorID = cursor.ID
	}
	rows, err := s.users.ListProfiles(ctx, searchTerm, viewerID, cursorID, limit+1)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	page := &dto.ProfilePage{Profiles: make([]dto.Profile, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = &dto.ProfileCursor{ID: rows[len(rows)-1].ID}
	}
	for _, r := range rows {
		page.Profiles = append(page.Profiles, profileView(r))
	}
	return page, nil
}
