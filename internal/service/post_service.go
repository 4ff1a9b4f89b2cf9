package service

import (
	"context"
	"strings"

	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/querykeys"
	"sharify/internal/repository"
	"sharify/internal/validation"
)

type PostService struct {
	postRepo  repository.PostRepository
	publisher ChangePublisher
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string   `json:"title" validate:"required,max=300"`
	Content string   `json:"content" validate:"required,max=50000"`
	Company string   `json:"company" validate:"required,max=200"`
	College string   `json:"college" validate:"max=200"`
	Role    string   `json:"role" validate:"required,max=200"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=50"`
}

type CreatePostInput struct {
	UserID uint
	PostInput
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	PostInput
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ListPostsInput struct {
	Limit    int
	Offset   int
	ViewerID uint
}

func NewPostService(postRepo repository.PostRepository, publisher ChangePublisher) *PostService {
	return &PostService{postRepo: postRepo, publisher: publisherOrNoop(publisher)}
}

// normalize trims every field and drops blank or repeated tags, keeping the
// author's order.
func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Company = strings.TrimSpace(in.Company)
	in.College = strings.TrimSpace(in.College)
	in.Role = strings.TrimSpace(in.Role)

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]bool, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}
	in.Tags = tags
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartPostSpan(ctx, "create", 0)
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	in.normalize()
	if err := validation.Struct(&in.PostInput); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		Company:  in.Company,
		College:  in.College,
		Role:     in.Role,
		Tags:     in.Tags,
		AuthorID: in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	span.SetAttributes(observability.AttrPostID.Int64(int64(post.ID)))
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityPost, PostID: post.ID, OwnerID: in.UserID})

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.List(ctx, in.Limit, in.Offset, in.ViewerID)
}

// ListUserPosts lists one author's posts. It serves both the author's own
// dashboard and other users' public view.
func (s *PostService) ListUserPosts(ctx context.Context, authorID uint, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.ListByAuthor(ctx, authorID, in.Limit, in.Offset, in.ViewerID)
}

func (s *PostService) ListBookmarked(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	if in.ViewerID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	return s.postRepo.ListBookmarked(ctx, in.ViewerID, in.Limit, in.Offset)
}

func (s *PostService) ListLiked(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	if in.ViewerID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	return s.postRepo.ListLiked(ctx, in.ViewerID, in.Limit, in.Offset)
}

// SearchPosts returns an empty list for a blank query so callers fall back
// to the unfiltered list themselves.
func (s *PostService) SearchPosts(ctx context.Context, query string, in ListPostsInput) (posts []*models.Post, err error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []*models.Post{}, nil
	}
	ctx, span := observability.StartSearchSpan(ctx, query)
	defer func() {
		span.SetAttributes(observability.AttrResultCount.Int(len(posts)))
		observability.EndSpan(span, err)
	}()

	if len(trimmed) > 200 {
		return nil, models.NewValidationError("Search query too long (max 200 characters)")
	}
	return s.postRepo.Search(ctx, query, in.Limit, in.Offset, in.ViewerID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartPostSpan(ctx, "update", in.PostID)
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.authorize(ctx, in.PostID, in.UserID, "update")
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := validation.Struct(&in.PostInput); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Company = in.Company
	post.College = in.College
	post.Role = in.Role
	post.Tags = in.Tags
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityPost, PostID: post.ID, OwnerID: in.UserID})

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartPostSpan(ctx, "delete", in.PostID)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.authorize(ctx, in.PostID, in.UserID, "delete"); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityPost, PostID: in.PostID, OwnerID: in.UserID})
	return nil
}

func (s *PostService) authorize(ctx context.Context, postID, userID uint, action string) (*models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only " + action + " your own posts")
	}
	return post, nil
}
