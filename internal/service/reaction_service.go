package service

import (
	"context"

	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/querykeys"
	"sharify/internal/repository"
)

// ReactionService toggles likes and bookmarks.
type ReactionService struct {
	reactions repository.ReactionRepository
	posts     repository.PostRepository
	publisher ChangePublisher
}

// ToggleInput names the state being left: Current true removes the
// reaction, false adds it.
type ToggleInput struct {
	UserID  uint
	PostID  uint
	Kind    repository.ReactionKind
	Current bool
}

// ReactionState is the persisted state after a toggle together with the
// post's fresh like count.
type ReactionState struct {
	PostID     uint   `json:"post_id"`
	Kind       string `json:"kind"`
	Active     bool   `json:"active"`
	LikesCount int    `json:"likes_count"`
}

func NewReactionService(reactions repository.ReactionRepository, posts repository.PostRepository, publisher ChangePublisher) *ReactionService {
	return &ReactionService{reactions: reactions, posts: posts, publisher: publisherOrNoop(publisher)}
}

// Status reports whether userID currently holds a reaction of kind on postID.
func (s *ReactionService) Status(ctx context.Context, kind repository.ReactionKind, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, models.NewUnauthorizedError("Not authenticated")
	}
	return s.reactions.Exists(ctx, kind, userID, postID)
}

// Toggle moves the reaction away from in.Current. Both directions are
// idempotent, so replaying a toggle with the same Current converges on the
// same state.
func (s *ReactionService) Toggle(ctx context.Context, in ToggleInput) (_ *ReactionState, err error) {
	ctx, span := observability.StartReactionSpan(ctx, string(in.Kind), in.PostID, in.Current)
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	if _, err := s.posts.GetByID(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	if in.Current {
		err = s.reactions.Remove(ctx, in.Kind, in.UserID, in.PostID)
	} else {
		err = s.reactions.Add(ctx, in.Kind, in.UserID, in.PostID)
	}
	if err != nil {
		return nil, err
	}

	entity := querykeys.EntityLike
	if in.Kind == repository.ReactionBookmark {
		entity = querykeys.EntityBookmark
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: entity, PostID: in.PostID, OwnerID: in.UserID})

	post, err := s.posts.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	active := post.IsLiked
	if in.Kind == repository.ReactionBookmark {
		active = post.IsBookmarked
	}
	return &ReactionState{PostID: in.PostID, Kind: string(in.Kind), Active: active, LikesCount: post.LikesCount}, nil
}
