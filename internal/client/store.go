package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"sharify/internal/models"
	"sharify/internal/querykeys"
)

// PostDraft is the editable part of a post.
type PostDraft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Company string   `json:"company"`
	College string   `json:"college,omitempty"`
	Role    string   `json:"role"`
	Tags    []string `json:"tags,omitempty"`
}

// ProfileUpdate is the editable part of a profile.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// ResourceDraft is a resource submission. File is optional.
type ResourceDraft struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Content      string   `json:"content"`
	ResourceType string   `json:"resource_type"`
	Link         string   `json:"link,omitempty"`
	Link2        string   `json:"link2,omitempty"`
	Link3        string   `json:"link3,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Author       string   `json:"author,omitempty"`
	FileName     string   `json:"-"`
	File         []byte   `json:"-"`
}

// Store exposes every read and mutation of the application. Reads go
// through the query cache; mutations invalidate the keys that depend on
// what they wrote.
type Store struct {
	transport *Transport
	session   *Session
	cache     *QueryCache
	toaster   Toaster
	toggles   *keyedMutex
}

func NewStore(transport *Transport, session *Session, cache *QueryCache, toaster Toaster) *Store {
	if toaster == nil {
		toaster = LogToaster{}
	}
	return &Store{
		transport: transport,
		session:   session,
		cache:     cache,
		toaster:   toaster,
		toggles:   newKeyedMutex(),
	}
}

// listPageSize is the largest page the post list endpoints serve.
const listPageSize = 100

// get reads every post behind a paginated list endpoint, one page at a time,
// until a short page comes back.
func (s *Store) get(path string) func(context.Context) ([]models.Post, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return func(ctx context.Context) ([]models.Post, error) {
		out := []models.Post{}
		seen := make(map[uint]struct{})
		for offset := 0; ; offset += listPageSize {
			var page []models.Post
			pagePath := fmt.Sprintf("%s%slimit=%d&offset=%d", path, sep, listPageSize, offset)
			if err := s.transport.Do(ctx, http.MethodGet, pagePath, nil, &page); err != nil {
				return nil, err
			}
			for _, p := range page {
				// a post created between pages shifts the window by one
				if _, dup := seen[p.ID]; dup {
					continue
				}
				seen[p.ID] = struct{}{}
				out = append(out, p)
			}
			if len(page) < listPageSize {
				return out, nil
			}
		}
	}
}

func fetchOne[T any](s *Store, path string) func(context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) {
		out := new(T)
		if err := s.transport.Do(ctx, http.MethodGet, path, nil, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Posts is the global feed, newest first.
func (s *Store) Posts(ctx context.Context) ([]models.Post, error) {
	return Fetch(ctx, s.cache, querykeys.PostsKey(), s.get("/api/posts"))
}

func (s *Store) Post(ctx context.Context, postID uint) (*models.Post, error) {
	if postID == 0 {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.PostKey(postID), fetchOne[models.Post](s, fmt.Sprintf("/api/posts/%d", postID)))
}

// MyPosts lists the signed-in user's posts.
func (s *Store) MyPosts(ctx context.Context) ([]models.Post, error) {
	if s.session.Identity() == nil {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.UserPostsKey(), s.get("/api/me/posts"))
}

// UserPosts lists another user's posts.
func (s *Store) UserPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	if userID == 0 {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.PublicUserPostsKey(userID), s.get(fmt.Sprintf("/api/users/%d/posts", userID)))
}

func (s *Store) Bookmarks(ctx context.Context) ([]models.Post, error) {
	if s.session.Identity() == nil {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.BookmarksKey(), s.get("/api/me/bookmarks"))
}

func (s *Store) LikedPosts(ctx context.Context) ([]models.Post, error) {
	if s.session.Identity() == nil {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.LikedPostsKey(), s.get("/api/me/likes"))
}

// Search matches q, as typed, against title, company, college, role and
// content. A blank query is disabled rather than sent.
func (s *Store) Search(ctx context.Context, q string) ([]models.Post, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.SearchKey(q), s.get("/api/posts/search?q="+url.QueryEscape(q)))
}

func (s *Store) reactionStatus(ctx context.Context, kind reactionKind, postID uint) (bool, error) {
	if postID == 0 || s.session.Identity() == nil {
		return false, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, kind.statusKey(postID), func(ctx context.Context) (bool, error) {
		out := map[string]any{}
		if err := s.transport.Do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/%s", postID, kind), nil, &out); err != nil {
			return false, err
		}
		active, _ := out[kind.field()].(bool)
		return active, nil
	})
}

// LikeStatus reports whether the signed-in user likes the post.
func (s *Store) LikeStatus(ctx context.Context, postID uint) (bool, error) {
	return s.reactionStatus(ctx, reactionLike, postID)
}

// BookmarkStatus reports whether the signed-in user bookmarked the post.
func (s *Store) BookmarkStatus(ctx context.Context, postID uint) (bool, error) {
	return s.reactionStatus(ctx, reactionBookmark, postID)
}

// Comments lists a post's comments, newest first.
func (s *Store) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if postID == 0 {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.CommentsKey(postID), func(ctx context.Context) ([]models.Comment, error) {
		var out []models.Comment
		err := s.transport.Do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", postID), nil, &out)
		return out, err
	})
}

// MyProfile is the signed-in user's own profile.
func (s *Store) MyProfile(ctx context.Context) (*models.PublicProfile, error) {
	id := s.session.Identity()
	if id == nil {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.ProfileKey(id.ID), fetchOne[models.PublicProfile](s, "/api/profile"))
}

// Profile is another user's public profile.
func (s *Store) Profile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	if userID == 0 {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.PublicProfileKey(userID), fetchOne[models.PublicProfile](s, fmt.Sprintf("/api/users/%d", userID)))
}

func (s *Store) Resources(ctx context.Context) ([]models.Resource, error) {
	return Fetch(ctx, s.cache, querykeys.ResourcesKey(), func(ctx context.Context) ([]models.Resource, error) {
		var out []models.Resource
		err := s.transport.Do(ctx, http.MethodGet, "/api/resources", nil, &out)
		return out, err
	})
}

func (s *Store) Resource(ctx context.Context, resourceID uint) (*models.Resource, error) {
	if resourceID == 0 {
		return nil, ErrQueryDisabled
	}
	return Fetch(ctx, s.cache, querykeys.ResourceKey(resourceID), fetchOne[models.Resource](s, fmt.Sprintf("/api/resources/%d", resourceID)))
}

// mutate runs one write: identity check, call, then either an error toast or
// invalidation plus an optional success toast.
func (s *Store) mutate(ctx context.Context, c Call, out any, success string, changes func() []querykeys.Change) error {
	if _, err := s.session.RequireIdentity(); err != nil {
		s.toaster.Toast(errorToast(userMessage(err)))
		return err
	}
	if err := s.transport.Send(ctx, c, out); err != nil {
		s.toaster.Toast(errorToast(userMessage(err)))
		return err
	}
	if changes != nil {
		s.cache.InvalidateChanges(changes()...)
	}
	if success != "" {
		s.toaster.Toast(successToast(success))
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, draft PostDraft) (*models.Post, error) {
	var post models.Post
	err := s.mutate(ctx, Call{Method: http.MethodPost, Path: "/api/posts", Body: draft}, &post,
		"Blog post created successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityPost, PostID: post.ID, OwnerID: post.AuthorID}}
		})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, postID uint, draft PostDraft) (*models.Post, error) {
	var post models.Post
	err := s.mutate(ctx, Call{Method: http.MethodPut, Path: fmt.Sprintf("/api/posts/%d", postID), Body: draft}, &post,
		"Blog post updated successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityPost, PostID: postID, OwnerID: post.AuthorID}}
		})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post the caller owns. Nothing is sent unless
// confirmed is true.
func (s *Store) DeletePost(ctx context.Context, postID uint, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	var owner uint
	if id := s.session.Identity(); id != nil {
		owner = id.ID
	}
	return s.mutate(ctx, Call{Method: http.MethodDelete, Path: fmt.Sprintf("/api/posts/%d", postID)}, nil,
		"Blog post deleted successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityPost, PostID: postID, OwnerID: owner}}
		})
}

// AddComment posts a comment. Blank content is rejected locally.
func (s *Store) AddComment(ctx context.Context, postID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	var comment models.Comment
	err := s.mutate(ctx, Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/posts/%d/comments", postID),
		Body:   map[string]string{"content": content},
	}, &comment, "Comment posted successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityComment, PostID: postID}}
		})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.PublicProfile, error) {
	var profile models.PublicProfile
	err := s.mutate(ctx, Call{Method: http.MethodPut, Path: "/api/profile", Body: in}, &profile,
		"Profile updated successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityProfile, OwnerID: profile.ID}}
		})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UploadAvatar replaces the signed-in user's avatar.
func (s *Store) UploadAvatar(ctx context.Context, name string, content []byte) (*models.PublicProfile, error) {
	var profile models.PublicProfile
	err := s.mutate(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/profile/avatar",
		Form:   &Form{FileField: "avatar", FileName: name, File: content},
	}, &profile, "Profile updated successfully!",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityProfile, OwnerID: profile.ID}}
		})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateResource submits a resource, as multipart when a file is attached.
func (s *Store) CreateResource(ctx context.Context, draft ResourceDraft) (*models.Resource, error) {
	call := Call{Method: http.MethodPost, Path: "/api/resources", Body: draft}
	if len(draft.File) > 0 {
		fields := map[string]string{
			"title":         draft.Title,
			"description":   draft.Description,
			"content":       draft.Content,
			"resource_type": draft.ResourceType,
			"link":          draft.Link,
			"link2":         draft.Link2,
			"link3":         draft.Link3,
			"author":        draft.Author,
			"tags":          strings.Join(draft.Tags, ","),
		}
		call.Body = nil
		call.Form = &Form{Fields: fields, FileField: "file", FileName: draft.FileName, File: draft.File}
	}
	var resource models.Resource
	err := s.mutate(ctx, call, &resource, "",
		func() []querykeys.Change {
			return []querykeys.Change{{Entity: querykeys.EntityResource, ResourceID: resource.ID}}
		})
	if err != nil {
		return nil, err
	}
	return &resource, nil
}
