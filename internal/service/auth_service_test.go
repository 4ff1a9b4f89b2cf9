package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"sharify/internal/models"
	"sharify/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *mailbox) SendConfirmation(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string]string)
	}
	m.links[to] = link
	return nil
}

func (m *mailbox) token(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := url.Parse(m.links[to])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func setupAuth(t *testing.T, requireConfirmation bool) (*AuthService, *mailbox, *miniredis.Miniredis) {
	t.Helper()
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mail := &mailbox{}
	svc := NewAuthService(repository.NewAccountRepository(db), client, mail, AuthConfig{
		JWTSecret:                "test-secret-that-is-long-enough-123",
		RequireEmailConfirmation: requireConfirmation,
		PublicBaseURL:            "http://localhost:8375",
	})
	return svc, mail, mr
}

func TestAuthService_SignUpConfirmLogin(t *testing.T) {
	svc, mail, _ := setupAuth(t, true)
	ctx := context.Background()

	id, err := svc.SignUp(ctx, SignUpInput{Email: " Asha@Example.com ", Password: "placement2026", DisplayName: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", id.Email)
	assert.False(t, id.EmailConfirmed)

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "placement2026"})
	assert.Equal(t, models.CodeEmailNotConfirmed, appCode(t, err))

	token := mail.token(t, "asha@example.com")
	require.NotEmpty(t, token)
	confirmed, err := svc.Confirm(ctx, token)
	require.NoError(t, err)
	assert.True(t, confirmed.EmailConfirmed)

	_, err = svc.Confirm(ctx, token)
	assert.Equal(t, models.CodeValidation, appCode(t, err), "confirmation links are single use")

	session, err := svc.Login(ctx, LoginInput{Email: "ASHA@example.com", Password: "placement2026"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, "Asha", session.User.DisplayName)

	claims, err := svc.ParseToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt, time.Minute)
}

func TestAuthService_SignUpErrors(t *testing.T) {
	svc, _, _ := setupAuth(t, false)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "short1"})
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	_, err = svc.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "placement2026"})
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	id, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)
	assert.True(t, id.EmailConfirmed)

	_, err = svc.SignUp(ctx, SignUpInput{Email: "A@example.com", Password: "placement2026"})
	assert.Equal(t, models.CodeConflict, appCode(t, err))
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc, _, _ := setupAuth(t, false)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong-password1"})
	assert.Equal(t, models.CodeInvalidCredentials, appCode(t, err))
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "placement2026"})
	assert.Equal(t, models.CodeInvalidCredentials, appCode(t, err))
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	svc, _, mr := setupAuth(t, false)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)
	session, err := svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)

	claims, err := svc.Logout(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.True(t, mr.Exists("blacklist:"+claims.JTI))
	assert.Greater(t, mr.TTL("blacklist:"+claims.JTI), 24*time.Hour)

	_, err = svc.ParseToken(ctx, session.AccessToken)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	svc, _, _ := setupAuth(t, false)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)
	session, err := svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)

	other := *svc
	other.cfg.JWTSecret = "a-different-secret-entirely-456"
	_, err = other.ParseToken(ctx, session.AccessToken)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	later := *svc
	later.now = func() time.Time { return time.Now().Add(DefaultTokenTTL + time.Hour) }
	_, err = later.ParseToken(ctx, session.AccessToken)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	_, err = svc.ParseToken(ctx, strings.Repeat("x", 20))
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))
}

func TestAuthService_WSTicketIsSingleUse(t *testing.T) {
	svc, _, mr := setupAuth(t, false)
	ctx := context.Background()

	ticket, err := svc.IssueWSTicket(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, WSTicketTTL, mr.TTL("ws_ticket:"+ticket))

	uid, err := svc.RedeemWSTicket(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, uint(12), uid)

	_, err = svc.RedeemWSTicket(ctx, ticket)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	ticket, err = svc.IssueWSTicket(ctx, 12)
	require.NoError(t, err)
	mr.FastForward(WSTicketTTL + time.Second)
	_, err = svc.RedeemWSTicket(ctx, ticket)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))
}

func TestAuthService_ChangePasswordAndAdmin(t *testing.T) {
	svc, _, _ := setupAuth(t, false)
	ctx := context.Background()
	id, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "placement2026"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, id.ID, "nodigits")
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	require.NoError(t, svc.ChangePassword(ctx, id.ID, "offcampus2027"))

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "placement2026"})
	assert.Equal(t, models.CodeInvalidCredentials, appCode(t, err))
	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "offcampus2027"})
	require.NoError(t, err)

	admin, err := svc.IsAdmin(ctx, id.ID)
	require.NoError(t, err)
	assert.False(t, admin)
	admin, err = svc.IsAdmin(ctx, 999)
	require.NoError(t, err)
	assert.False(t, admin)

	identity, err := svc.Identity(ctx, id.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", identity.Email)
}
