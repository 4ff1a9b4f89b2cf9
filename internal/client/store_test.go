package client

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"sharify/internal/models"
	"sharify/internal/querykeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postID(p models.Post) uint { return p.ID }

func TestStore_AnonymousViewer(t *testing.T) {
	base := startAPI(t)
	author, _ := signedInClient(t, base, "author@example.com", "Author")
	ctx := context.Background()
	_, err := author.CreatePost(ctx, samplePost("Flipkart OA", "Flipkart"))
	require.NoError(t, err)

	c, toasts := newTestClient(t, base)

	posts, err := c.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.False(t, posts[0].IsLiked)

	_, err = c.MyPosts(ctx)
	assert.ErrorIs(t, err, ErrQueryDisabled)
	_, err = c.LikeStatus(ctx, posts[0].ID)
	assert.ErrorIs(t, err, ErrQueryDisabled)

	_, err = c.CreatePost(ctx, samplePost("Should not exist", "Nowhere"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, Toast{Title: "Error", Description: "Not authenticated", Destructive: true}, toasts.last())

	_, err = c.ToggleLike(ctx, posts[0].ID, posts[0].IsLiked)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	fresh, err := author.Posts(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestStore_CreatedPostAppearsInLists(t *testing.T) {
	base := startAPI(t)
	c, toasts := signedInClient(t, base, "riya@example.com", "Riya")
	ctx := context.Background()

	mine, err := c.MyPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)
	feed, err := c.Posts(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)

	post, err := c.CreatePost(ctx, samplePost("Amazon SDE-1", "Amazon"))
	require.NoError(t, err)
	assert.Equal(t, "Blog post created successfully!", toasts.last().Description)

	mine, err = c.MyPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids(mine, postID))
	feed, err = c.Posts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids(feed, postID))

	updated, err := c.UpdatePost(ctx, post.ID, samplePost("Amazon SDE-1 (updated)", "Amazon"))
	require.NoError(t, err)
	assert.Equal(t, "Amazon SDE-1 (updated)", updated.Title)
	got, err := c.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amazon SDE-1 (updated)", got.Title)
}

func TestStore_CreatePostValidationToasts(t *testing.T) {
	base := startAPI(t)
	c, toasts := signedInClient(t, base, "val@example.com", "Val")

	_, err := c.CreatePost(context.Background(), PostDraft{Title: "No body"})
	require.Error(t, err)
	assert.True(t, HasCode(err, models.CodeValidation))
	assert.True(t, toasts.last().Destructive)
	assert.Zero(t, c.Cache.Len())
}

func TestStore_LikeRoundTrip(t *testing.T) {
	base := startAPI(t)
	author, _ := signedInClient(t, base, "writer@example.com", "Writer")
	reader, _ := signedInClient(t, base, "reader@example.com", "Reader")
	ctx := context.Background()

	post, err := author.CreatePost(ctx, samplePost("Google STEP", "Google"))
	require.NoError(t, err)

	before, err := reader.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.LikesCount)

	res, err := reader.ToggleLike(ctx, post.ID, before.IsLiked)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, 1, res.LikesCount)

	cached, ok := Peek[*models.Post](reader.Cache, querykeys.PostKey(post.ID))
	require.True(t, ok)
	assert.Equal(t, 1, cached.LikesCount)
	assert.True(t, cached.IsLiked)
	assert.Equal(t, 0, before.LikesCount, "earlier snapshots are never mutated")

	liked, err := reader.LikeStatus(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	likedPosts, err := reader.LikedPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids(likedPosts, postID))

	seen, err := author.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, seen.LikesCount)

	res, err = reader.ToggleLike(ctx, post.ID, true)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, 0, res.LikesCount)
	likedPosts, err = reader.LikedPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, likedPosts)
}

func TestStore_BookmarkRoundTrip(t *testing.T) {
	base := startAPI(t)
	c, _ := signedInClient(t, base, "saver@example.com", "Saver")
	ctx := context.Background()
	post, err := c.CreatePost(ctx, samplePost("Microsoft IDC", "Microsoft"))
	require.NoError(t, err)

	saved, err := c.Bookmarks(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)

	res, err := c.ToggleBookmark(ctx, post.ID, post.IsBookmarked)
	require.NoError(t, err)
	assert.True(t, res.Active)

	saved, err = c.Bookmarks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids(saved, postID))
	status, err := c.BookmarkStatus(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, status)
}

func TestStore_DeleteNeedsConfirmation(t *testing.T) {
	base := startAPI(t)
	owner, toasts := signedInClient(t, base, "owner@example.com", "Owner")
	other, otherToasts := signedInClient(t, base, "other@example.com", "Other")
	ctx := context.Background()

	post, err := owner.CreatePost(ctx, samplePost("Atlassian", "Atlassian"))
	require.NoError(t, err)

	assert.ErrorIs(t, owner.DeletePost(ctx, post.ID, false), ErrNotConfirmed)
	_, err = owner.Post(ctx, post.ID)
	require.NoError(t, err)

	err = other.DeletePost(ctx, post.ID, true)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.True(t, otherToasts.last().Destructive)

	require.NoError(t, owner.DeletePost(ctx, post.ID, true))
	assert.Equal(t, "Blog post deleted successfully!", toasts.last().Description)

	_, err = owner.Post(ctx, post.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	feed, err := owner.Posts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(feed, postID), post.ID)
	mine, err := owner.MyPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestStore_Search(t *testing.T) {
	base := startAPI(t)
	c, _ := signedInClient(t, base, "seeker@example.com", "Seeker")
	ctx := context.Background()

	google, err := c.CreatePost(ctx, samplePost("Google L3 loop", "Google"))
	require.NoError(t, err)
	_, err = c.CreatePost(ctx, samplePost("Zomato backend", "Zomato"))
	require.NoError(t, err)

	found, err := c.Search(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, []uint{google.ID}, ids(found, postID))

	found, err = c.Search(ctx, "GOOGLE L3")
	require.NoError(t, err)
	assert.Equal(t, []uint{google.ID}, ids(found, postID))

	found, err = c.Search(ctx, "Google ")
	require.NoError(t, err)
	assert.Equal(t, []uint{google.ID}, ids(found, postID), "the title holds \"Google \"")

	found, err = c.Search(ctx, " Zomato ")
	require.NoError(t, err)
	assert.Empty(t, found, "surrounding spaces are part of the query")

	_, err = c.Search(ctx, "   ")
	assert.ErrorIs(t, err, ErrQueryDisabled)

	found, err = c.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStore_ListsReadEveryPage(t *testing.T) {
	base, db := startAPIWithDB(t)
	c, _ := signedInClient(t, base, "prolific@example.com", "Prolific")
	ctx := context.Background()
	uid := c.Session.Identity().ID

	const matching, other = listPageSize + 30, 5
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < matching+other; i++ {
		company := "Google"
		if i >= matching {
			company = "Atlassian"
		}
		p := &models.Post{
			Title:     fmt.Sprintf("Round %d", i),
			Content:   "Two coding rounds.",
			Company:   company,
			Role:      "SDE Intern",
			AuthorID:  uid,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Omit("Author").Create(p).Error)
		if i < matching {
			require.NoError(t, db.Create(&models.Bookmark{UserID: uid, PostID: p.ID}).Error)
			require.NoError(t, db.Create(&models.Like{UserID: uid, PostID: p.ID}).Error)
		}
	}

	unique := func(t *testing.T, posts []models.Post) {
		t.Helper()
		seen := map[uint]bool{}
		for _, p := range posts {
			assert.False(t, seen[p.ID], "post %d listed twice", p.ID)
			seen[p.ID] = true
		}
	}

	feed, err := c.Posts(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, matching+other)
	unique(t, feed)
	assert.Equal(t, fmt.Sprintf("Round %d", matching+other-1), feed[0].Title)

	mine, err := c.MyPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, matching+other)

	theirs, err := c.UserPosts(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, theirs, matching+other)

	found, err := c.Search(ctx, "google")
	require.NoError(t, err)
	assert.Len(t, found, matching)
	unique(t, found)

	saved, err := c.Bookmarks(ctx)
	require.NoError(t, err)
	assert.Len(t, saved, matching)

	liked, err := c.LikedPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, liked, matching)
}

func TestStore_Comments(t *testing.T) {
	base := startAPI(t)
	c, toasts := signedInClient(t, base, "talker@example.com", "Talker")
	ctx := context.Background()
	post, err := c.CreatePost(ctx, samplePost("Uber", "Uber"))
	require.NoError(t, err)

	before, err := c.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.CommentsCount)

	_, err = c.AddComment(ctx, post.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	first, err := c.AddComment(ctx, post.ID, "Which topics came up?")
	require.NoError(t, err)
	assert.Equal(t, "Comment posted successfully!", toasts.last().Description)
	second, err := c.AddComment(ctx, post.ID, "Thanks for sharing")
	require.NoError(t, err)

	comments, err := c.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, ids(comments, func(cm models.Comment) uint { return cm.ID }))

	after, err := c.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.CommentsCount)
}

func TestStore_Profile(t *testing.T) {
	base := startAPI(t)
	c, toasts := signedInClient(t, base, "pooja@example.com", "Pooja")
	ctx := context.Background()

	mine, err := c.MyProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pooja", mine.Name)

	_, err = c.UpdateProfile(ctx, ProfileUpdate{Name: "Pooja S", Bio: "SDE at Swiggy", Location: "Bengaluru"})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully!", toasts.last().Description)

	mine, err = c.MyProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pooja S", mine.Name)
	assert.Equal(t, "SDE at Swiggy", mine.Bio)

	public, err := c.Profile(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, public.HasProfile)

	_, err = c.Profile(ctx, 0)
	assert.ErrorIs(t, err, ErrQueryDisabled)
}

func TestStore_Resources(t *testing.T) {
	base, db := startAPIWithDB(t)
	c, _ := signedInClient(t, base, "curator@example.com", "Curator")
	ctx := context.Background()

	draft := ResourceDraft{
		Title:        "DSA sheet",
		Description:  "Curated problems",
		Content:      "Arrays, graphs and DP.",
		ResourceType: "Link",
		Link:         "https://example.com/dsa",
		Tags:         []string{"dsa"},
	}
	_, err := c.CreateResource(ctx, draft)
	assert.True(t, IsStatus(err, http.StatusForbidden))

	listed, err := c.Resources(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	makeAdmin(t, db, c.Session.Identity().ID)
	created, err := c.CreateResource(ctx, draft)
	require.NoError(t, err)

	listed, err = c.Resources(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	one, err := c.Resource(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "DSA sheet", one.Title)

	draft.Title = "Resume template"
	draft.FileName = "resume.txt"
	draft.File = []byte("name, education, projects")
	withFile, err := c.CreateResource(ctx, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, withFile.FileURL)
}

func TestStore_SessionChangeClearsCache(t *testing.T) {
	base := startAPI(t)
	c, _ := signedInClient(t, base, "switch@example.com", "Switch")
	ctx := context.Background()
	_, err := c.Posts(ctx)
	require.NoError(t, err)
	require.NotZero(t, c.Cache.Len())

	require.NoError(t, c.SignOut(ctx))
	assert.Zero(t, c.Cache.Len())
}
