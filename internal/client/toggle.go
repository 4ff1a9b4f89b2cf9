package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"sharify/internal/models"
	"sharify/internal/querykeys"
)

type reactionKind string

const (
	reactionLike     reactionKind = "like"
	reactionBookmark reactionKind = "bookmark"
)

func (k reactionKind) statusKey(postID uint) querykeys.Key {
	if k == reactionLike {
		return querykeys.LikeStatusKey(postID)
	}
	return querykeys.BookmarkStatusKey(postID)
}

func (k reactionKind) field() string {
	if k == reactionLike {
		return "is_liked"
	}
	return "is_bookmarked"
}

func (k reactionKind) entity() querykeys.Entity {
	if k == reactionLike {
		return querykeys.EntityLike
	}
	return querykeys.EntityBookmark
}

// ReactionResult is the settled state after a toggle.
type ReactionResult struct {
	PostID     uint   `json:"post_id"`
	Kind       string `json:"kind"`
	Active     bool   `json:"active"`
	LikesCount int    `json:"likes_count"`
}

// keyedMutex hands out one lock per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (m *keyedMutex) Lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// ToggleLike flips the signed-in user's like on a post from isLiked, the
// state the caller is showing.
func (s *Store) ToggleLike(ctx context.Context, postID uint, isLiked bool) (*ReactionResult, error) {
	return s.toggle(ctx, reactionLike, postID, isLiked)
}

// ToggleBookmark flips the signed-in user's bookmark on a post from
// isBookmarked.
func (s *Store) ToggleBookmark(ctx context.Context, postID uint, isBookmarked bool) (*ReactionResult, error) {
	return s.toggle(ctx, reactionBookmark, postID, isBookmarked)
}

// toggle applies the flip locally, sends the state it flipped from, then
// either reconciles with the server's answer or restores the snapshot.
// Toggles of one (user, post, kind) run one at a time so each sees the
// settled result of the previous one: a cached status wins over shown.
func (s *Store) toggle(ctx context.Context, kind reactionKind, postID uint, shown bool) (*ReactionResult, error) {
	identity, err := s.session.RequireIdentity()
	if err != nil {
		s.toaster.Toast(errorToast(userMessage(err)))
		return nil, err
	}
	if postID == 0 {
		return nil, ErrQueryDisabled
	}

	unlock := s.toggles.Lock(fmt.Sprintf("%d:%d:%s", identity.ID, postID, kind))
	defer unlock()

	statusKey := kind.statusKey(postID)
	postKey := querykeys.PostKey(postID)
	current, cached := Peek[bool](s.cache, statusKey)
	if !cached {
		current = shown
	}
	previous, hadPost := Peek[*models.Post](s.cache, postKey)
	epoch := s.cache.Epoch()

	s.cache.SetIn(epoch, statusKey, !current)
	if hadPost {
		Update(s.cache, postKey, func(p *models.Post) *models.Post {
			return applyReaction(p, kind, !current, nil)
		})
	}

	var state ReactionResult
	err = s.transport.Send(ctx, Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/posts/%d/%s", postID, kind),
		Body:   map[string]bool{"current": current},
	}, &state)
	if err != nil {
		// A 401 signs the session out and clears the cache; nothing to restore.
		if s.session.Identity() != nil {
			s.cache.SetIn(epoch, statusKey, current)
			if hadPost {
				s.cache.SetIn(epoch, postKey, previous)
			}
		}
		s.toaster.Toast(errorToast(userMessage(err)))
		return nil, err
	}

	affected := s.cache.graph.Affected(querykeys.Change{Entity: kind.entity(), PostID: postID})
	keep := make([]querykeys.Key, 0, len(affected))
	for _, k := range affected {
		if k != statusKey && k != postKey {
			keep = append(keep, k)
		}
	}
	s.cache.Invalidate(keep...)

	s.cache.SetIn(epoch, statusKey, state.Active)
	if hadPost {
		Update(s.cache, postKey, func(p *models.Post) *models.Post {
			return applyReaction(p, kind, state.Active, &state.LikesCount)
		})
	}
	return &state, nil
}

// applyReaction returns a copy of p with the reaction set to active. A nil
// likes adjusts the count by one; otherwise the count is taken as given.
func applyReaction(p *models.Post, kind reactionKind, active bool, likes *int) *models.Post {
	cp := *p
	switch kind {
	case reactionLike:
		switch {
		case likes != nil:
			cp.LikesCount = *likes
		case active && !cp.IsLiked:
			cp.LikesCount++
		case !active && cp.IsLiked && cp.LikesCount > 0:
			cp.LikesCount--
		}
		cp.IsLiked = active
	case reactionBookmark:
		cp.IsBookmarked = active
	}
	return &cp
}
