package client

import (
	"context"
	"sync"

	"sharify/internal/models"
)

// CommentDraft holds unsent comment text for one post. The text survives a
// failed submit and is cleared only once the comment is stored.
type CommentDraft struct {
	store  *Store
	postID uint

	mu         sync.Mutex
	text       string
	submitting bool
}

func (s *Store) NewCommentDraft(postID uint) *CommentDraft {
	return &CommentDraft{store: s, postID: postID}
}

func (d *CommentDraft) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

func (d *CommentDraft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Submitting reports whether a submit is in flight.
func (d *CommentDraft) Submitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}

// Submit posts the draft. A second Submit while one is running returns
// ErrSubmitInFlight.
func (d *CommentDraft) Submit(ctx context.Context) (*models.Comment, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	d.submitting = true
	text := d.text
	d.mu.Unlock()

	comment, err := d.store.AddComment(ctx, d.postID, text)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		return nil, err
	}
	if d.text == text {
		d.text = ""
	}
	return comment, nil
}
