package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"sharify/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	post := &models.Post{Title: "Test Post", Content: "Content", Company: "Acme", Role: "SDE", AuthorID: 1}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListQueryShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, ` +
			`(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, ` +
			`EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = $1) AS is_liked, ` +
			`EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.post_id = posts.id AND bookmarks.user_id = $2) AS is_bookmarked ` +
			`FROM "posts" WHERE "posts"."deleted_at" IS NULL ORDER BY posts.created_at DESC LIMIT $3`)).
		WithArgs(7, 7, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id", "likes_count", "comments_count", "is_liked", "is_bookmarked"}).
			AddRow(1, "Post 1", 10, 4, 2, true, false))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(10, "author"))

	posts, err := repo.List(context.Background(), 20, 0, 7)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 4, posts[0].LikesCount)
	assert.Equal(t, 2, posts[0].CommentsCount)
	assert.True(t, posts[0].IsLiked)
	assert.False(t, posts[0].IsBookmarked)
	assert.Equal(t, "author", posts[0].Author.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CountsReflectRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createUser(t, db, 1, "author")
	post := createPost(t, db, author.ID, "Google SWE", "Google", 0)

	const likers, commenters = 3, 5
	for i := uint(0); i < likers; i++ {
		createUser(t, db, 100+i, "liker")
		require.NoError(t, db.Create(&models.Like{UserID: 100 + i, PostID: post.ID}).Error)
	}
	for i := 0; i < commenters; i++ {
		require.NoError(t, db.Create(&models.Comment{Content: "nice", AuthorID: author.ID, PostID: post.ID}).Error)
	}

	got, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, likers, got.LikesCount)
	assert.Equal(t, commenters, got.CommentsCount)
	assert.False(t, got.IsLiked)
	assert.Equal(t, "author", got.Author.Name)
	assert.Equal(t, []string{"intern"}, got.Tags)

	got, err = repo.GetByID(ctx, post.ID, 100)
	require.NoError(t, err)
	assert.True(t, got.IsLiked)
	assert.False(t, got.IsBookmarked)
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 404, 0)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestPostRepository_ListOrderAndAuthorFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createUser(t, db, 1, "a")
	createUser(t, db, 2, "b")
	createPost(t, db, 1, "oldest", "X", 0)
	createPost(t, db, 2, "middle", "Y", 1)
	createPost(t, db, 1, "newest", "Z", 2)

	all, err := repo.List(ctx, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, titles(all))

	mine, err := repo.ListByAuthor(ctx, 1, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "oldest"}, titles(mine))

	page, err := repo.List(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"middle"}, titles(page))
}

func TestPostRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createUser(t, db, 1, "a")
	createPost(t, db, 1, "My onsite", "Google", 0)
	createPost(t, db, 1, "Backend loop", "Stripe", 1)
	role := createPost(t, db, 1, "Summer", "Acme", 2)
	require.NoError(t, db.Model(role).Update("role", "Googler-in-residence").Error)
	college := createPost(t, db, 1, "Campus drive", "Initech", 3)
	require.NoError(t, db.Model(college).Update("college", "IIT Bombay").Error)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case-insensitive company or role", "google", []string{"Summer", "My onsite"}},
		{"title", "LOOP", []string{"Backend loop"}},
		{"college", "bombay", []string{"Campus drive"}},
		{"content", "system design", []string{"Campus drive", "Summer", "Backend loop", "My onsite"}},
		{"no match", "microsoft", []string{}},
		{"trailing space is part of the match", "google ", []string{}},
		{"leading space is part of the match", " LOOP", []string{"Backend loop"}},
		{"percent is literal", "%", []string{}},
		{"underscore is literal", "_", []string{}},
		{"blank", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.query, 0, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestPostRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createUser(t, db, 1, "a")
	post := createPost(t, db, 1, "Draft", "Acme", 0)

	post.Title = "Final"
	post.College = ""
	post.Tags = []string{"dsa", "hr"}
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, []string{"dsa", "hr"}, got.Tags)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID, 1)
	assert.Error(t, err)

	err = repo.Delete(ctx, post.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	err = repo.Update(ctx, post)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestPostRepository_DeletedPostLeavesReactionLists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createUser(t, db, 1, "owner")
	createUser(t, db, 2, "reader")
	kept := createPost(t, db, 1, "kept", "A", 0)
	doomed := createPost(t, db, 1, "doomed", "B", 1)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Bookmark{UserID: 2, PostID: doomed.ID, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.Bookmark{UserID: 2, PostID: kept.ID, CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: 2, PostID: kept.ID, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: 2, PostID: doomed.ID, CreatedAt: base.Add(time.Minute)}).Error)

	bookmarked, err := repo.ListBookmarked(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept", "doomed"}, titles(bookmarked), "most recently bookmarked first")
	for _, p := range bookmarked {
		assert.True(t, p.IsBookmarked)
	}

	liked, err := repo.ListLiked(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doomed", "kept"}, titles(liked))
	assert.True(t, liked[0].IsLiked)
	assert.Equal(t, 1, liked[0].LikesCount)

	require.NoError(t, repo.Delete(ctx, doomed.ID))

	bookmarked, err = repo.ListBookmarked(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, titles(bookmarked))

	liked, err = repo.ListLiked(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, titles(liked))

	mine, err := repo.ListByAuthor(ctx, 1, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, titles(mine))
}
