package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/repository"
	"sharify/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer     = "sharify-api"
	TokenAudience   = "sharify-client"
	DefaultTokenTTL = 7 * 24 * time.Hour
	WSTicketTTL     = 30 * time.Second
)

// Mailer delivers account e-mails.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

// LogMailer writes confirmation links to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendConfirmation(ctx context.Context, to, link string) error {
	observability.Logger.InfoContext(ctx, "confirmation email",
		slog.String("to", to), slog.String("link", link))
	return nil
}

// AuthConfig configures token issuing and sign-up.
type AuthConfig struct {
	JWTSecret                string
	RequireEmailConfirmation bool
	PublicBaseURL            string
	TokenTTL                 time.Duration
}

// Identity is the signed-in account as the client sees it.
type Identity struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	IsAdmin        bool   `json:"is_admin"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Session is returned by a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

// Claims are the validated parts of an access token.
type Claims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

type SignUpInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,password"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService is the identity provider: accounts, confirmation, tokens and
// revocation.
type AuthService struct {
	accounts repository.AccountRepository
	redis    *redis.Client
	mailer   Mailer
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(accounts repository.AccountRepository, redisClient *redis.Client, mailer Mailer, cfg AuthConfig) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &AuthService{accounts: accounts, redis: redisClient, mailer: mailer, cfg: cfg, now: time.Now}
}

func identityOf(a *models.Account) Identity {
	return Identity{
		ID:             a.ID,
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		IsAdmin:        a.IsAdmin,
		EmailConfirmed: a.Confirmed(),
	}
}

// SignUp creates an account. Unless confirmation is disabled the account
// stays unusable until the mailed link is followed.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Identity, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	existing, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	account := &models.Account{
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
	}
	if s.cfg.RequireEmailConfirmation {
		account.ConfirmationToken, err = randomToken()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
	} else {
		now := s.now().UTC()
		account.EmailConfirmedAt = &now
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if account.ConfirmationToken != "" {
		link := s.cfg.PublicBaseURL + "/api/auth/confirm?token=" + url.QueryEscape(account.ConfirmationToken)
		if err := s.mailer.SendConfirmation(ctx, account.Email, link); err != nil {
			observability.Logger.ErrorContext(ctx, "failed to send confirmation email",
				slog.Uint64("account_id", uint64(account.ID)), slog.String("error", err.Error()))
		}
	}

	id := identityOf(account)
	return &id, nil
}

// Confirm marks the account owning token as confirmed.
func (s *AuthService) Confirm(ctx context.Context, token string) (*Identity, error) {
	account, err := s.accounts.GetByConfirmationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, models.NewValidationError("Confirmation link is invalid or has expired")
		}
		return nil, err
	}
	now := s.now().UTC()
	if err := s.accounts.Confirm(ctx, account.ID, now); err != nil {
		return nil, err
	}
	account.EmailConfirmedAt = &now
	id := identityOf(account)
	return &id, nil
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if !account.Confirmed() {
		return nil, models.NewEmailNotConfirmedError()
	}

	token, expiresAt, err := s.generateToken(account.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: identityOf(account)}, nil
}

// generateToken creates a JWT token for the given account ID
func (s *AuthService) generateToken(accountID uint) (string, time.Time, error) {
	if s.cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(accountID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": generateJTI(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	return signed, time.Unix(expiresAt.Unix(), 0).UTC(), err
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

// ParseToken validates signature, issuer, audience, expiry and revocation.
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewUnauthorizedError("Invalid token expiry")
	}
	jti, _ := claims["jti"].(string)

	if jti != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return &Claims{UserID: uint(userID), JTI: jti, ExpiresAt: exp.Time}, nil
}

// Logout revokes the token by blacklisting its jti until it would expire.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.ParseToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if s.redis == nil || claims.JTI == "" {
		return claims, nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return claims, nil
	}
	if err := s.redis.Set(ctx, "blacklist:"+claims.JTI, claims.UserID, ttl).Err(); err != nil {
		return nil, models.NewInternalError(err)
	}
	return claims, nil
}

// ChangePassword replaces the password of a signed-in account.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.accounts.UpdatePassword(ctx, userID, string(hash))
}

// Identity returns the account behind userID.
func (s *AuthService) Identity(ctx context.Context, userID uint) (*Identity, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	id := identityOf(account)
	return &id, nil
}

// IsAdmin reports whether userID may use admin-only operations.
func (s *AuthService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return account.IsAdmin, nil
}

// IssueWSTicket stores a short-lived single-use ticket that authenticates a
// websocket upgrade, which cannot carry an Authorization header.
func (s *AuthService) IssueWSTicket(ctx context.Context, userID uint) (string, error) {
	if s.redis == nil {
		return "", models.NewInternalError(errors.New("redis unavailable"))
	}
	ticket := uuid.NewString()
	if err := s.redis.Set(ctx, "ws_ticket:"+ticket, userID, WSTicketTTL).Err(); err != nil {
		return "", models.NewInternalError(err)
	}
	return ticket, nil
}

// RedeemWSTicket consumes ticket and returns its user.
func (s *AuthService) RedeemWSTicket(ctx context.Context, ticket string) (uint, error) {
	if s.redis == nil || ticket == "" {
		return 0, models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	}
	raw, err := s.redis.GetDel(ctx, "ws_ticket:"+ticket).Result()
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	}
	return uint(userID), nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
