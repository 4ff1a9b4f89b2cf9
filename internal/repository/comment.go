package repository

import (
	"context"

	"sharify/internal/cache"
	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/querykeys"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})
	return nil
}

// ListByPost returns the comments under postID, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := cache.Aside(ctx, querykeys.CommentsKey(postID), &comments, func(ctx context.Context) ([]*models.Comment, error) {
		out := []*models.Comment{}
		err := readDB(r.db).WithContext(ctx).
			Preload("Author").
			Where("post_id = ?", postID).
			Order("created_at DESC").
			Order("id DESC").
			Find(&out).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return out, nil
	})
	return comments, err
}
