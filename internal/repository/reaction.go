package repository

import (
	"context"
	"fmt"

	"sharify/internal/models"
	"sharify/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionKind selects the table a reaction lives in.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionBookmark ReactionKind = "bookmark"
)

// ReactionRepository stores likes and bookmarks. Both are (user, post) pairs
// whose existence is the state, so Add and Remove are idempotent.
type ReactionRepository interface {
	Add(ctx context.Context, kind ReactionKind, userID, postID uint) error
	Remove(ctx context.Context, kind ReactionKind, userID, postID uint) error
	Exists(ctx context.Context, kind ReactionKind, userID, postID uint) (bool, error)
}

type reactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReactionRepository returns a gorm-backed ReactionRepository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, log: observability.NewRepoLogger("reactions")}
}

func newReaction(kind ReactionKind, userID, postID uint) (any, error) {
	switch kind {
	case ReactionLike:
		return &models.Like{UserID: userID, PostID: postID}, nil
	case ReactionBookmark:
		return &models.Bookmark{UserID: userID, PostID: postID}, nil
	default:
		return nil, fmt.Errorf("unknown reaction kind %q", kind)
	}
}

func (r *reactionRepository) Add(ctx context.Context, kind ReactionKind, userID, postID uint) error {
	row, err := newReaction(kind, userID, postID)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "add_"+string(kind))
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]any{"kind": string(kind), "user_id": userID, "post_id": postID})
	}
	return nil
}

func (r *reactionRepository) Remove(ctx context.Context, kind ReactionKind, userID, postID uint) error {
	row, err := newReaction(kind, userID, postID)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(row)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "remove_"+string(kind))
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]any{"kind": string(kind), "user_id": userID, "post_id": postID})
	}
	return nil
}

func (r *reactionRepository) Exists(ctx context.Context, kind ReactionKind, userID, postID uint) (bool, error) {
	row, err := newReaction(kind, userID, postID)
	if err != nil {
		return false, models.NewValidationError(err.Error())
	}
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(row).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
