package client

import (
	"context"
	"sync/atomic"
	"testing"

	"sharify/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentDraft_KeptOnFailureClearedOnSuccess(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/api/users/ensure", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{}) })
	app.Post("/api/posts/:id/comments", func(c *fiber.Ctx) error {
		if fail.Load() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "try again later"})
		}
		return c.Status(fiber.StatusCreated).JSON(models.Comment{ID: 5, PostID: 9, Content: "Helpful, thanks"})
	})
	c, toasts := stubClient(t, app)
	ctx := context.Background()

	draft := c.NewCommentDraft(9)
	draft.SetText("Helpful, thanks")

	_, err := draft.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "Helpful, thanks", draft.Text())
	assert.Equal(t, "try again later", toasts.last().Description)
	assert.False(t, draft.Submitting())

	fail.Store(false)
	comment, err := draft.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(5), comment.ID)
	assert.Empty(t, draft.Text())
	assert.Equal(t, "Comment posted successfully!", toasts.last().Description)
}

func TestCommentDraft_BlankIsRejectedLocally(t *testing.T) {
	var hits atomic.Int32
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/api/users/ensure", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{}) })
	app.Post("/api/posts/:id/comments", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.SendStatus(fiber.StatusCreated)
	})
	c, _ := stubClient(t, app)

	draft := c.NewCommentDraft(9)
	draft.SetText("  \n ")
	_, err := draft.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyComment)
	assert.Equal(t, "  \n ", draft.Text())
	assert.Zero(t, hits.Load())
}
