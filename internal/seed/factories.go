// Package seed provides helpers to create demo data for development and
// tests. Nothing here runs in production.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"sharify/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var (
	companies = []string{
		"Google", "Microsoft", "Amazon", "Flipkart", "Atlassian", "Goldman Sachs",
		"Uber", "Swiggy", "Zomato", "Adobe", "Salesforce", "Oracle", "Intuit",
		"Deloitte", "Infosys", "TCS", "Razorpay", "PhonePe", "Walmart Global Tech",
	}
	roles = []string{
		"SDE Intern", "SDE-1", "Software Engineer", "Data Analyst", "Product Analyst",
		"Summer Analyst", "Associate Consultant", "ML Engineer", "Backend Engineer",
	}
	colleges = []string{
		"IIT Bombay", "IIT Delhi", "NIT Trichy", "BITS Pilani", "IIIT Hyderabad",
		"VIT Vellore", "DTU", "NSUT", "Jadavpur University", "",
	}
	rounds = []string{
		"an online assessment with two DSA problems",
		"a technical interview on graphs and dynamic programming",
		"a system design discussion about a URL shortener",
		"a resume deep dive on my internship project",
		"an HR round about relocation and team preferences",
		"a SQL and puzzles round",
		"a managerial round on conflict and ownership",
	}
	tagPool = []string{"dsa", "system-design", "intern", "full-time", "oncampus", "offcampus", "referral", "sql", "hr"}
)

// Options tunes how the seeder writes.
type Options struct {
	// SkipBcrypt hashes at the minimum cost so large seeds finish quickly.
	SkipBcrypt bool
	// DryRun assigns synthetic IDs and writes nothing.
	DryRun bool
	// MaxDays spreads created_at over this many past days.
	MaxDays int
	// BatchSize is used for bulk inserts.
	BatchSize int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	rng    *rand.Rand
	hash   string
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	f := &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404: seeding only
		nextID: 1000,
	}
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	f.hash = string(hashed)
	return f
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) pick(list []string) string {
	return list[f.rng.Intn(len(list))]
}

func (f *Factory) create(value any, describe string) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] %s (no DB write)", describe)
		return nil
	}
	return f.db.Create(value).Error
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// CreateAccount persists a confirmed account with its public user record
// and, half of the time, a profile. Both share the account's ID.
func (f *Factory) CreateAccount(overrides ...func(*models.Account)) (*models.Account, *models.User, error) {
	name := gofakeit.Name()
	now := time.Now()
	account := &models.Account{
		Email:            strings.ToLower(fmt.Sprintf("%s.%d@example.com", strings.ReplaceAll(name, " ", "."), gofakeit.Number(100, 9999))),
		PasswordHash:     f.hash,
		DisplayName:      name,
		EmailConfirmedAt: &now,
	}
	for _, override := range overrides {
		override(account)
	}

	if f.opts.DryRun {
		account.ID = f.syntheticID()
	} else if err := f.db.Create(account).Error; err != nil {
		return nil, nil, err
	}

	user := &models.User{ID: account.ID, Name: account.DisplayName, Email: account.Email, CreatedAt: now}
	if err := f.create(user, "CreateUser "+account.Email); err != nil {
		return nil, nil, err
	}

	if f.rng.Intn(2) == 0 {
		profile := &models.Profile{
			UserID:    account.ID,
			Name:      account.DisplayName,
			Bio:       fmt.Sprintf("%s at %s. %s", f.pick(roles), f.pick(companies), gofakeit.HipsterSentence(6)),
			AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Location:  gofakeit.City(),
		}
		if err := f.create(profile, "CreateProfile "+account.Email); err != nil {
			return nil, nil, err
		}
	}
	return account, user, nil
}

// BuildPost returns an unsaved placement post by author.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	company := f.pick(companies)
	role := f.pick(roles)
	var body strings.Builder
	fmt.Fprintf(&body, "I interviewed with %s for the %s role.", company, role)
	for i := 0; i < 2+f.rng.Intn(3); i++ {
		fmt.Fprintf(&body, " Round %d was %s.", i+1, f.pick(rounds))
	}
	fmt.Fprintf(&body, "\n\n%s", gofakeit.Paragraph(1, 3, 12, " "))

	tags := []string{f.pick(tagPool), f.pick(tagPool)}
	if tags[0] == tags[1] {
		tags = tags[:1]
	}
	created := f.pastTime()
	post := &models.Post{
		Title:     fmt.Sprintf("%s %s experience", company, role),
		Content:   body.String(),
		Company:   company,
		College:   f.pick(colleges),
		Role:      role,
		Tags:      tags,
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a placement post by author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if f.opts.DryRun {
		post.ID = f.syntheticID()
	}
	if err := f.create(post, fmt.Sprintf("CreatePost author=%d title=%q", post.AuthorID, post.Title)); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists posts in one statement per batch.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.syntheticID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	size := f.opts.BatchSize
	if size <= 0 {
		size = 100
	}
	return f.db.CreateInBatches(&posts, size).Error
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	openers := []string{"Thanks for sharing!", "Very helpful.", "Congrats on the offer!", "Which resources did you use?", "How long did the process take?"}
	comment := &models.Comment{
		Content:   f.pick(openers) + " " + gofakeit.Sentence(8),
		AuthorID:  author.ID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rng.Intn(72)) * time.Hour),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.create(comment, fmt.Sprintf("CreateComment post=%d", post.ID)); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	return f.create(&models.Like{UserID: user.ID, PostID: post.ID}, fmt.Sprintf("CreateLike %d->%d", user.ID, post.ID))
}

// CreateBookmark persists a bookmark from user on post.
func (f *Factory) CreateBookmark(user *models.User, post *models.Post) error {
	return f.create(&models.Bookmark{UserID: user.ID, PostID: post.ID}, fmt.Sprintf("CreateBookmark %d->%d", user.ID, post.ID))
}
