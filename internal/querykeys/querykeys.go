// Package querykeys names every cached read and declares which entities each
// read depends on. Mutations describe what they wrote as Changes and the Graph
// turns those into the exact set of keys that must be dropped.
package querykeys

import (
	"sort"
	"strconv"
	"strings"
)

// Entity is a kind of persisted row.
type Entity string

const (
	EntityPost     Entity = "post"
	EntityLike     Entity = "like"
	EntityBookmark Entity = "bookmark"
	EntityComment  Entity = "comment"
	EntityProfile  Entity = "profile"
	EntityUser     Entity = "user"
	EntityResource Entity = "resource"
)

// Family is a class of reads sharing a shape, e.g. "comments for a post".
type Family string

const (
	Posts           Family = "posts"
	Post            Family = "post"
	UserPosts       Family = "user-posts"
	PublicUserPosts Family = "public-user-posts"
	Bookmarks       Family = "bookmarks"
	LikedPosts      Family = "liked-posts"
	LikeStatus      Family = "like-status"
	BookmarkStatus  Family = "bookmark-status"
	Comments        Family = "comments"
	Search          Family = "search"
	Profile         Family = "profile"
	PublicProfile   Family = "public-profile"
	Resources       Family = "resources"
	Resource        Family = "resource"
)

// Scope says what a family's parameter identifies.
type Scope int

const (
	// ScopeNone families have no parameter.
	ScopeNone Scope = iota
	// ScopePost families are keyed by post ID.
	ScopePost
	// ScopeOwner families are keyed by the user who owns the rows.
	ScopeOwner
	// ScopeResource families are keyed by resource ID.
	ScopeResource
	// ScopeQuery families are keyed by free text and never narrowed.
	ScopeQuery
)

// Key identifies one cached read. An empty Param on a parameterised family
// stands for every key in that family.
type Key struct {
	Family Family
	Param  string
}

// String renders the key as "family" or "family:param".
func (k Key) String() string {
	if k.Param == "" {
		return string(k.Family)
	}
	return string(k.Family) + ":" + k.Param
}

// Whole reports whether k addresses an entire family.
func (k Key) Whole() bool {
	return k.Param == ""
}

// Matches reports whether k, used as an invalidation target, covers other.
func (k Key) Matches(other Key) bool {
	if k.Family != other.Family {
		return false
	}
	return k.Param == "" || k.Param == other.Param
}

// Parse is the inverse of Key.String.
func Parse(s string) Key {
	family, param, _ := strings.Cut(s, ":")
	return Key{Family: Family(family), Param: param}
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func PostsKey() Key { return Key{Family: Posts} }

func PostKey(postID uint) Key { return Key{Family: Post, Param: id(postID)} }

func UserPostsKey() Key { return Key{Family: UserPosts} }

func PublicUserPostsKey(userID uint) Key { return Key{Family: PublicUserPosts, Param: id(userID)} }

func BookmarksKey() Key { return Key{Family: Bookmarks} }

func LikedPostsKey() Key { return Key{Family: LikedPosts} }

func LikeStatusKey(postID uint) Key { return Key{Family: LikeStatus, Param: id(postID)} }

func BookmarkStatusKey(postID uint) Key { return Key{Family: BookmarkStatus, Param: id(postID)} }

func CommentsKey(postID uint) Key { return Key{Family: Comments, Param: id(postID)} }

func SearchKey(q string) Key { return Key{Family: Search, Param: q} }

func ProfileKey(userID uint) Key { return Key{Family: Profile, Param: id(userID)} }

func PublicProfileKey(userID uint) Key { return Key{Family: PublicProfile, Param: id(userID)} }

func ResourcesKey() Key { return Key{Family: Resources} }

func ResourceKey(resourceID uint) Key { return Key{Family: Resource, Param: id(resourceID)} }

// Change describes rows a mutation wrote. Zero IDs mean "unknown", which
// widens the affected set to whole families.
type Change struct {
	Entity     Entity `json:"entity"`
	PostID     uint   `json:"post_id,omitempty"`
	OwnerID    uint   `json:"owner_id,omitempty"`
	ResourceID uint   `json:"resource_id,omitempty"`
}

// Spec declares one family.
type Spec struct {
	Family Family
	Scope  Scope
	Reads  []Entity
}

// Graph maps families to the entities they read.
type Graph struct {
	specs    []Spec
	byEntity map[Entity][]Spec
}

// postReads is what any post collection depends on: the rows themselves,
// their aggregate counts, per-viewer flags and the embedded author.
var postReads = []Entity{EntityPost, EntityLike, EntityBookmark, EntityComment, EntityUser}

// DefaultSpecs lists every family the application reads.
var DefaultSpecs = []Spec{
	{Family: Posts, Scope: ScopeNone, Reads: postReads},
	{Family: Post, Scope: ScopePost, Reads: postReads},
	{Family: UserPosts, Scope: ScopeNone, Reads: postReads},
	{Family: PublicUserPosts, Scope: ScopeOwner, Reads: postReads},
	{Family: Bookmarks, Scope: ScopeNone, Reads: postReads},
	{Family: LikedPosts, Scope: ScopeNone, Reads: postReads},
	{Family: Search, Scope: ScopeQuery, Reads: postReads},
	{Family: LikeStatus, Scope: ScopePost, Reads: []Entity{EntityLike}},
	{Family: BookmarkStatus, Scope: ScopePost, Reads: []Entity{EntityBookmark}},
	{Family: Comments, Scope: ScopePost, Reads: []Entity{EntityComment, EntityUser}},
	{Family: Profile, Scope: ScopeOwner, Reads: []Entity{EntityProfile, EntityUser}},
	{Family: PublicProfile, Scope: ScopeOwner, Reads: []Entity{EntityProfile, EntityUser}},
	{Family: Resources, Scope: ScopeNone, Reads: []Entity{EntityResource}},
	{Family: Resource, Scope: ScopeResource, Reads: []Entity{EntityResource}},
}

// NewGraph indexes specs by the entities they read.
func NewGraph(specs []Spec) *Graph {
	g := &Graph{specs: specs, byEntity: make(map[Entity][]Spec)}
	for _, s := range specs {
		for _, e := range s.Reads {
			g.byEntity[e] = append(g.byEntity[e], s)
		}
	}
	return g
}

// Default is the graph built from DefaultSpecs.
var Default = NewGraph(DefaultSpecs)

// Specs returns the declared families.
func (g *Graph) Specs() []Spec {
	return g.specs
}

// Readers returns the families that read e.
func (g *Graph) Readers(e Entity) []Family {
	out := make([]Family, 0, len(g.byEntity[e]))
	for _, s := range g.byEntity[e] {
		out = append(out, s.Family)
	}
	return out
}

// Affected returns the keys invalidated by changes, deduplicated and sorted.
// A whole-family key absorbs any narrower key of the same family.
func (g *Graph) Affected(changes ...Change) []Key {
	whole := make(map[Family]bool)
	narrow := make(map[Key]bool)

	for _, ch := range changes {
		for _, s := range g.byEntity[ch.Entity] {
			param := narrowParam(s.Scope, ch)
			if param == "" {
				whole[s.Family] = true
				continue
			}
			narrow[Key{Family: s.Family, Param: param}] = true
		}
	}

	out := make([]Key, 0, len(whole)+len(narrow))
	for f := range whole {
		out = append(out, Key{Family: f})
	}
	for k := range narrow {
		if !whole[k.Family] {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func narrowParam(scope Scope, ch Change) string {
	switch scope {
	case ScopePost:
		if ch.PostID != 0 {
			return id(ch.PostID)
		}
	case ScopeOwner:
		if ch.OwnerID != 0 && ownsFamilyRows(ch.Entity) {
			return id(ch.OwnerID)
		}
	case ScopeResource:
		if ch.ResourceID != 0 {
			return id(ch.ResourceID)
		}
	}
	return ""
}

// ownsFamilyRows reports whether OwnerID on a change of e identifies the
// owner that owner-scoped families are keyed by. A like's actor is not the
// author of the liked post, so reactions always widen.
func ownsFamilyRows(e Entity) bool {
	switch e {
	case EntityPost, EntityProfile, EntityUser:
		return true
	default:
		return false
	}
}
