package repository

import (
	"context"
	"fmt"
	"strings"

	"sharify/internal/cache"
	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/querykeys"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations. Every read
// returns posts with their counts and the viewer's like and bookmark flags;
// viewerID 0 means an anonymous viewer.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Post, error)
	ListBookmarked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListLiked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// searchColumns are matched with OR semantics by Search.
var searchColumns = []string{"posts.title", "posts.company", "posts.college", "posts.role", "posts.content"}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	fetch := func(ctx context.Context) (models.Post, error) {
		var post models.Post
		err := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
			Preload("Author").
			Where("posts.id = ?", id).
			First(&post).Error
		return post, notFound(err, "Post", id)
	}

	// Viewer flags make signed-in reads personal, so only anonymous reads share a cache entry.
	if viewerID != 0 {
		post, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &post, nil
	}
	var post models.Post
	if err := cache.Aside(ctx, querykeys.PostKey(id), &post, fetch); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Order("posts.created_at DESC"), limit, offset)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Where("posts.author_id = ?", authorID).
		Order("posts.created_at DESC"), limit, offset)
}

// ListBookmarked returns the posts userID bookmarked, most recently bookmarked
// first. Soft-deleted posts are excluded.
func (r *postRepository) ListBookmarked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(readDB(r.db).WithContext(ctx), userID).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id AND bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Order("posts.id DESC"), limit, offset)
}

// ListLiked returns the posts userID liked, most recently liked first.
func (r *postRepository) ListLiked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(readDB(r.db).WithContext(ctx), userID).
		Joins("JOIN likes ON likes.post_id = posts.id AND likes.user_id = ?", userID).
		Order("likes.created_at DESC").
		Order("posts.id DESC"), limit, offset)
}

// Search matches query, surrounding spaces included, as a case-insensitive
// substring of any search column. A blank query matches nothing.
func (r *postRepository) Search(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Post{}, nil
	}
	pattern := containsPattern(query)
	conds := make([]string, len(searchColumns))
	args := make([]any, len(searchColumns))
	for i, col := range searchColumns {
		conds[i] = fmt.Sprintf(`LOWER(COALESCE(%s, '')) LIKE ? ESCAPE '\'`, col)
		args[i] = pattern
	}
	return r.find(ctx, applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("posts.created_at DESC"), limit, offset)
}

func (r *postRepository) find(ctx context.Context, q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Preload("Author").Find(&posts).Error; err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails selects posts with comment and like counts and the
// viewer's flags in a single query.
func applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Model(&models.Post{}).Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked"+
			", EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.post_id = posts.id AND bookmarks.user_id = ?) AS is_bookmarked",
			viewerID, viewerID)
	}
	return db.Model(&models.Post{}).Select(selectQuery + ", false AS is_liked, false AS is_bookmarked")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("title", "content", "company", "college", "role", "tags", "updated_at").
		Updates(post)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete soft-deletes the post. Its likes, bookmarks and comments stay but
// every list query skips the post.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.LogDelete(ctx, map[string]any{"post_id": id})
	return nil
}
