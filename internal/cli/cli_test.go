package cli

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"sharify/internal/client"
	"sharify/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStub is a minimal API that records the requests it sees.
type apiStub struct {
	mu       sync.Mutex
	requests []string
}

func (s *apiStub) record(c *fiber.Ctx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c.Method()+" "+c.OriginalURL())
}

func (s *apiStub) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *apiStub) start(t *testing.T) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		s.record(c)
		return c.Next()
	})
	app.Get("/api/auth/session", func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer good-token" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token", "code": models.CodeUnauthorized})
		}
		return c.JSON(client.Identity{ID: 3, Email: "lena@example.com", DisplayName: "Lena"})
	})
	app.Post("/api/users/ensure", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"created": false}) })
	app.Get("/api/posts", func(c *fiber.Ctx) error {
		return c.JSON([]models.Post{{ID: 1, Title: "Goldman Sachs summer analyst", Company: "Goldman Sachs", Role: "Analyst", LikesCount: 2}})
	})
	app.Get("/api/posts/search", func(c *fiber.Ctx) error {
		return c.JSON([]models.Post{{ID: 1, Title: "Match for " + c.Query("q"), Company: "Acme"}})
	})
	app.Delete("/api/posts/:id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Post deleted successfully"})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })
	return "http://" + ln.Addr().String()
}

// run executes the CLI against base with an optional stored token.
func run(t *testing.T, base, token, stdin string, args ...string) (string, string, error) {
	t.Helper()
	store := &client.MemoryTokenStore{}
	if token != "" {
		require.NoError(t, store.Save(&client.StoredSession{AccessToken: token}))
	}
	factory := func(_ *cobra.Command, toaster client.Toaster) (*client.Client, error) {
		return client.New(base, client.WithToaster(toaster), client.WithTokenStore(store),
			client.WithSearchDebounce(20*time.Millisecond)), nil
	}
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(factory)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestHome_PromptsAnonymousViewerToSignIn(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	out, _, err := run(t, base, "", "", "home")
	require.NoError(t, err)
	assert.Contains(t, out, signInPrompt)
	assert.Contains(t, out, "Goldman Sachs summer analyst")
}

func TestHome_SignedInViewerSeesFeedOnly(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	out, _, err := run(t, base, "good-token", "", "home")
	require.NoError(t, err)
	assert.NotContains(t, out, signInPrompt)
	assert.Contains(t, out, "Goldman Sachs")
}

func TestWhoami(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	out, _, err := run(t, base, "good-token", "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Lena <lena@example.com> id=3 member\n", out)

	out, errOut, err := run(t, base, "stale-token", "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, signInPrompt)
	assert.Contains(t, errOut, "could not restore session")
}

func TestPostDelete_AsksForConfirmation(t *testing.T) {
	cases := []struct {
		name       string
		stdin      string
		args       []string
		wantDelete bool
		wantOut    string
	}{
		{name: "declined", stdin: "n\n", args: []string{"post", "delete", "1"}, wantOut: "Cancelled."},
		{name: "empty answer", stdin: "\n", args: []string{"post", "delete", "1"}, wantOut: "Cancelled."},
		{name: "accepted", stdin: "y\n", args: []string{"post", "delete", "1"}, wantDelete: true},
		{name: "flag", args: []string{"post", "delete", "--yes", "1"}, wantDelete: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &apiStub{}
			base := stub.start(t)

			out, errOut, err := run(t, base, "good-token", tc.stdin, tc.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tc.wantOut)
			assert.Equal(t, tc.wantDelete, contains(stub.seen(), "DELETE /api/posts/1"))
			if tc.wantDelete {
				assert.Contains(t, errOut, "Blog post deleted successfully!")
			}
		})
	}
}

func TestPostDelete_AnonymousIsRejectedBeforeRequest(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	_, errOut, err := run(t, base, "", "", "post", "delete", "--yes", "1")
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, errOut, "Error: Not authenticated")
	assert.False(t, contains(stub.seen(), "DELETE /api/posts/1"))
}

func TestSearch(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	out, _, err := run(t, base, "", "", "search", "goldman", "sachs")
	require.NoError(t, err)
	assert.Contains(t, out, "Match for goldman sachs")

	_, _, err = run(t, base, "", "", "search", "  ")
	assert.EqualError(t, err, "search needs a query")
}

func TestSearch_InteractiveSendsSettledQueries(t *testing.T) {
	stub := &apiStub{}
	base := stub.start(t)

	out, _, err := run(t, base, "", "d\nde\ndeloitte\n", "search", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, `results for "deloitte"`)

	var searches []string
	for _, r := range stub.seen() {
		if strings.HasPrefix(r, "GET /api/posts/search") {
			searches = append(searches, r)
		}
	}
	assert.Equal(t, []string{"GET /api/posts/search?q=deloitte&limit=100&offset=0"}, searches)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
