package seed

import (
	"fmt"
	"log"

	"sharify/internal/models"

	"gorm.io/gorm"
)

// Seeder fills a database with a believable community: accounts, posts and
// the reactions and comments between them.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a seeder with optional Options.
func NewSeeder(db *gorm.DB, opts ...Options) *Seeder {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	return &Seeder{db: db, factory: NewFactory(db, o)}
}

// Stats summarises one run.
type Stats struct {
	Users     int
	Posts     int
	Comments  int
	Likes     int
	Bookmarks int
	Resources int
}

// ClearAll deletes every seeded row, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	for _, model := range []any{
		&models.Comment{}, &models.Like{}, &models.Bookmark{}, &models.Post{},
		&models.Resource{}, &models.Profile{}, &models.User{}, &models.Account{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// SeedUsers creates count accounts with their user records.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		_, user, err := s.factory.CreateAccount()
		if err != nil {
			return nil, fmt.Errorf("create account %d: %w", i, err)
		}
		users = append(users, user)
		if i > 0 && i%50 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// SeedEngagement writes count posts spread across users, then has other
// users like, bookmark and comment on them.
func (s *Seeder) SeedEngagement(users []*models.User, count int) (*Stats, error) {
	stats := &Stats{Users: len(users)}
	if len(users) == 0 || count <= 0 {
		return stats, nil
	}
	f := s.factory

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		posts = append(posts, f.BuildPost(users[f.rng.Intn(len(users))]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	stats.Posts = len(posts)

	for _, post := range posts {
		for _, u := range users {
			if u.ID == post.AuthorID {
				continue
			}
			roll := f.rng.Intn(100)
			if roll < 30 {
				if err := f.CreateLike(u, post); err != nil {
					return nil, fmt.Errorf("like post %d: %w", post.ID, err)
				}
				stats.Likes++
			}
			if roll%10 == 0 {
				if err := f.CreateBookmark(u, post); err != nil {
					return nil, fmt.Errorf("bookmark post %d: %w", post.ID, err)
				}
				stats.Bookmarks++
			}
			if roll > 90 {
				if _, err := f.CreateComment(u, post); err != nil {
					return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
				}
				stats.Comments++
			}
		}
	}
	return stats, nil
}

// Run seeds users and posts, plus the built-in resources.
func (s *Seeder) Run(numUsers, numPosts int) (*Stats, error) {
	users, err := s.SeedUsers(numUsers)
	if err != nil {
		return nil, err
	}
	stats, err := s.SeedEngagement(users, numPosts)
	if err != nil {
		return nil, err
	}
	if !s.factory.opts.DryRun {
		if err := Resources(s.db); err != nil {
			return nil, err
		}
		stats.Resources = len(BuiltInResources)
	}
	return stats, nil
}

// PromoteAdmin marks the account with email as an administrator.
func (s *Seeder) PromoteAdmin(email string) error {
	res := s.db.Model(&models.Account{}).Where("email = ?", email).Update("is_admin", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no account with email %s", email)
	}
	return nil
}
