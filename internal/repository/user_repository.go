package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/chirp/internal/model"
)

// ProfileRow 用户及其关系计数
type ProfileRow struct {
	ID             string
	Name           string
	Email          string
	Image          string
	FollowersCount int64
	FollowsCount   int64
	TweetsCount    int64
	IsFollowing    int64
}

type UserRepository interface {
	// Upsert 按 id 写入或更新展示字段
	Upsert(ctx context.Context, u *model.User) error
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	GetProfile(ctx context.Context, id, viewerID string) (*ProfileRow, error)
	// ListProfiles 名称模糊匹配（忽略大小写），按 (name asc, id asc) 返回游标之后的至多 limit 行
	ListProfiles(ctx context.Context, searchTerm, viewerID, cursorID string, limit int) ([]ProfileRow, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "image"}),
	}).Create(u).Error
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) profileQuery(ctx context.Context, viewerID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users").
		Select(`users.id, users.name, users.email, users.image,
			(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS followers_count,
			(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS follows_count,
			(SELECT COUNT(*) FROM tweets WHERE tweets.author_id = users.id) AS tweets_count,
			(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id AND follows.follower_id = ?) AS is_following`,
			viewerID)
}

func (r *userRepository) GetProfile(ctx context.Context, id, viewerID string) (*ProfileRow, error) {
	var rows []ProfileRow
	if err := r.profileQuery(ctx, viewerID).Where("users.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// likeEscaper 让搜索词中的 % 和 _ 按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *userRepository) ListProfiles(ctx context.Context, searchTerm, viewerID, cursorID string, limit int) ([]ProfileRow, error) {
	q := r.profileQuery(ctx, viewerID)
	if term := strings.ToLower(strings.TrimSpace(searchTerm)); term != "" {
		q = q.Where(`LOWER(users.name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
	}
	if cursorID != "" {
		var cur model.User
		err := r.db.WithContext(ctx).Select("id", "name").Where("id = ?", cursorID).Take(&cur).Error
		if err != nil {
			return nil, err
		}
		q = q.Where("(users.name > ? OR (users.name = ? AND users.id > ?))", cur.Name, cur.Name, cur.ID)
	}

	var rows []ProfileRow
	err := q.Order("users.name ASC").Order("users.id ASC").Limit(limit).Scan(&rows).Error
	return rows, err
}
