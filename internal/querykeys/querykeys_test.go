package querykeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCovers(t *testing.T, affected []Key, want ...Key) {
	t.Helper()
	for _, w := range want {
		covered := false
		for _, a := range affected {
			if a.Matches(w) {
				covered = true
				break
			}
		}
		assert.Truef(t, covered, "expected %s to be invalidated, got %v", w, affected)
	}
}

func TestKeyStringAndParse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "posts", PostsKey().String())
	assert.Equal(t, "post:12", PostKey(12).String())
	assert.Equal(t, "search:google inc", SearchKey("google inc").String())
	assert.Equal(t, PostKey(12), Parse("post:12"))
	assert.Equal(t, SearchKey("a:b"), Parse("search:a:b"))
}

func TestKeyMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, Key{Family: Post}.Matches(PostKey(3)))
	assert.True(t, PostKey(3).Matches(PostKey(3)))
	assert.False(t, PostKey(3).Matches(PostKey(4)))
	assert.False(t, Key{Family: Post}.Matches(PostsKey()))
}

func TestAffected_MatchesHandWrittenInvalidations(t *testing.T) {
	t.Parallel()

	g := Default
	tests := []struct {
		name    string
		changes []Change
		want    []Key
	}{
		{
			name:    "create post",
			changes: []Change{{Entity: EntityPost, PostID: 7, OwnerID: 2}},
			want:    []Key{PostsKey(), UserPostsKey(), PublicUserPostsKey(2)},
		},
		{
			name:    "update post",
			changes: []Change{{Entity: EntityPost, PostID: 7, OwnerID: 2}},
			want:    []Key{PostsKey(), UserPostsKey(), PostKey(7)},
		},
		{
			name:    "delete post",
			changes: []Change{{Entity: EntityPost, PostID: 7, OwnerID: 2}},
			want:    []Key{PostsKey(), UserPostsKey(), PostKey(7), BookmarksKey(), LikedPostsKey()},
		},
		{
			name:    "toggle like",
			changes: []Change{{Entity: EntityLike, PostID: 7}},
			want:    []Key{PostsKey(), PostKey(7), LikeStatusKey(7), LikedPostsKey()},
		},
		{
			name:    "toggle bookmark",
			changes: []Change{{Entity: EntityBookmark, PostID: 7}},
			want:    []Key{BookmarksKey(), PostsKey(), PostKey(7), BookmarkStatusKey(7)},
		},
		{
			name:    "create comment",
			changes: []Change{{Entity: EntityComment, PostID: 7}},
			want:    []Key{CommentsKey(7), PostsKey(), PostKey(7)},
		},
		{
			name:    "update profile",
			changes: []Change{{Entity: EntityProfile, OwnerID: 2}},
			want:    []Key{ProfileKey(2), PublicProfileKey(2)},
		},
		{
			name:    "create resource",
			changes: []Change{{Entity: EntityResource, ResourceID: 4}},
			want:    []Key{ResourcesKey(), ResourceKey(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCovers(t, g.Affected(tt.changes...), tt.want...)
		})
	}
}

func TestAffected_NarrowsPostScopedFamilies(t *testing.T) {
	t.Parallel()

	got := Default.Affected(Change{Entity: EntityLike, PostID: 7})

	assert.Contains(t, got, PostKey(7))
	assert.Contains(t, got, LikeStatusKey(7))
	assert.NotContains(t, got, Key{Family: Post})
	assert.False(t, Key{Family: Post, Param: "7"}.Matches(PostKey(8)))
	for _, k := range got {
		assert.NotEqual(t, BookmarkStatus, k.Family, "likes must not touch bookmark status")
		assert.NotEqual(t, Comments, k.Family)
	}
}

func TestAffected_ReactionsWidenOwnerScopedFamilies(t *testing.T) {
	t.Parallel()

	got := Default.Affected(Change{Entity: EntityLike, PostID: 7, OwnerID: 3})
	assert.Contains(t, got, Key{Family: PublicUserPosts})
}

func TestAffected_UnknownIDsWiden(t *testing.T) {
	t.Parallel()

	got := Default.Affected(Change{Entity: EntityComment})
	assert.Contains(t, got, Key{Family: Comments})
	assert.Contains(t, got, Key{Family: Post})
}

func TestAffected_WholeFamilyAbsorbsNarrowKeys(t *testing.T) {
	t.Parallel()

	got := Default.Affected(
		Change{Entity: EntityComment, PostID: 1},
		Change{Entity: EntityComment},
	)
	for _, k := range got {
		if k.Family == Comments {
			assert.True(t, k.Whole())
		}
	}
}

func TestAffected_SearchAlwaysWholeFamily(t *testing.T) {
	t.Parallel()

	got := Default.Affected(Change{Entity: EntityPost, PostID: 1, OwnerID: 1})
	assert.Contains(t, got, Key{Family: Search})
}

func TestEveryFamilyHasAReader(t *testing.T) {
	t.Parallel()

	seen := map[Family]bool{}
	for _, e := range []Entity{EntityPost, EntityLike, EntityBookmark, EntityComment, EntityProfile, EntityUser, EntityResource} {
		readers := Default.Readers(e)
		require.NotEmptyf(t, readers, "entity %s has no readers", e)
		for _, f := range readers {
			seen[f] = true
		}
	}
	for _, s := range Default.Specs() {
		assert.Truef(t, seen[s.Family], "family %s reads nothing", s.Family)
	}
}
