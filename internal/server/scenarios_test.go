package server

import (
	"net/http"
	"testing"

	"sharify/internal/models"
	"sharify/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_CreatedPostAppearsInMyPostsAndGlobalList(t *testing.T) {
	env := setupServer(t)
	token, uid := env.signIn("asha@example.com", "Asha")

	// Warm the anonymous list cache so the create has something to invalidate.
	var before []models.Post
	env.getJSON(http.MethodGet, "/api/posts", "", nil, http.StatusOK, &before)
	assert.Empty(t, before)

	post := env.createPost(token, "Amazon SDE intern", "Amazon")
	assert.Equal(t, uid, post.AuthorID)
	assert.Equal(t, []string{"dsa", "intern"}, post.Tags)

	var mine []models.Post
	env.getJSON(http.MethodGet, "/api/me/posts", token, nil, http.StatusOK, &mine)
	assert.Equal(t, []uint{post.ID}, postIDs(mine))

	var all []models.Post
	env.getJSON(http.MethodGet, "/api/posts", "", nil, http.StatusOK, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "Asha", all[0].Author.Name)
}

func TestScenario_LikeThenUnlikeIsVisibleToTheAuthor(t *testing.T) {
	env := setupServer(t)
	tokenA, _ := env.signIn("a@example.com", "A")
	tokenB, _ := env.signIn("b@example.com", "B")
	post := env.createPost(tokenB, "Google L3", "Google")

	// Prime the anonymous detail cache.
	var anon models.Post
	env.getJSON(http.MethodGet, urlf("/api/posts/%d", post.ID), "", nil, http.StatusOK, &anon)
	assert.Equal(t, 0, anon.LikesCount)

	var state service.ReactionState
	env.getJSON(http.MethodPost, urlf("/api/posts/%d/like", post.ID), tokenA,
		map[string]bool{"current": false}, http.StatusOK, &state)
	assert.True(t, state.Active)
	assert.Equal(t, 1, state.LikesCount)

	var seenByA models.Post
	env.getJSON(http.MethodGet, urlf("/api/posts/%d", post.ID), tokenA, nil, http.StatusOK, &seenByA)
	assert.Equal(t, 1, seenByA.LikesCount)
	assert.True(t, seenByA.IsLiked)

	env.getJSON(http.MethodGet, urlf("/api/posts/%d", post.ID), "", nil, http.StatusOK, &anon)
	assert.Equal(t, 1, anon.LikesCount, "cached anonymous read must be invalidated")

	env.getJSON(http.MethodPost, urlf("/api/posts/%d/like", post.ID), tokenA,
		map[string]bool{"is_liked": true}, http.StatusOK, &state)
	assert.False(t, state.Active)
	assert.Equal(t, 0, state.LikesCount)

	var seenByB models.Post
	env.getJSON(http.MethodGet, urlf("/api/posts/%d", post.ID), tokenB, nil, http.StatusOK, &seenByB)
	assert.Equal(t, 0, seenByB.LikesCount)
	assert.False(t, seenByB.IsLiked)

	var status struct {
		IsLiked bool `json:"is_liked"`
	}
	env.getJSON(http.MethodGet, urlf("/api/posts/%d/like", post.ID), tokenA, nil, http.StatusOK, &status)
	assert.False(t, status.IsLiked)
}

func TestScenario_DeletedPostLeavesEveryList(t *testing.T) {
	env := setupServer(t)
	owner, _ := env.signIn("owner@example.com", "Owner")
	reader, _ := env.signIn("reader@example.com", "Reader")
	doomed := env.createPost(owner, "Microsoft onsite", "Microsoft")
	kept := env.createPost(owner, "Flipkart SDE1", "Flipkart")

	for _, id := range []uint{doomed.ID, kept.ID} {
		env.getJSON(http.MethodPost, urlf("/api/posts/%d/like", id), reader, map[string]bool{"current": false}, http.StatusOK, nil)
		env.getJSON(http.MethodPost, urlf("/api/posts/%d/bookmark", id), reader, map[string]bool{"current": false}, http.StatusOK, nil)
	}

	var liked []models.Post
	env.getJSON(http.MethodGet, "/api/me/likes", reader, nil, http.StatusOK, &liked)
	assert.ElementsMatch(t, []uint{doomed.ID, kept.ID}, postIDs(liked))

	env.getJSON(http.MethodDelete, urlf("/api/posts/%d", doomed.ID), reader, nil, http.StatusForbidden, nil)
	env.getJSON(http.MethodDelete, urlf("/api/posts/%d", doomed.ID), owner, nil, http.StatusOK, nil)

	var mine, all, bookmarks []models.Post
	env.getJSON(http.MethodGet, "/api/me/posts", owner, nil, http.StatusOK, &mine)
	env.getJSON(http.MethodGet, "/api/posts", "", nil, http.StatusOK, &all)
	env.getJSON(http.MethodGet, "/api/me/bookmarks", reader, nil, http.StatusOK, &bookmarks)
	env.getJSON(http.MethodGet, "/api/me/likes", reader, nil, http.StatusOK, &liked)

	for name, list := range map[string][]models.Post{"mine": mine, "all": all, "bookmarks": bookmarks, "liked": liked} {
		assert.Equal(t, []uint{kept.ID}, postIDs(list), name)
	}
	env.getJSON(http.MethodGet, urlf("/api/posts/%d", doomed.ID), "", nil, http.StatusNotFound, nil)
}

func TestScenario_SearchMatchesCompanyCaseInsensitively(t *testing.T) {
	env := setupServer(t)
	token, _ := env.signIn("searcher@example.com", "Searcher")
	google := env.createPost(token, "Offer story", "Google")
	env.createPost(token, "Offer story", "Atlassian")
	env.createPost(token, "Offer story", "Zomato")

	var results []models.Post
	env.getJSON(http.MethodGet, "/api/posts/search?q=google", "", nil, http.StatusOK, &results)
	assert.Equal(t, []uint{google.ID}, postIDs(results))

	env.getJSON(http.MethodGet, "/api/posts/search?q=%20%20", "", nil, http.StatusOK, &results)
	assert.Empty(t, results)

	env.getJSON(http.MethodGet, "/api/posts/search?q=100%25", "", nil, http.StatusOK, &results)
	assert.Empty(t, results, "percent must match literally")
}
