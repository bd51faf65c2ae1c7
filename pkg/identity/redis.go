package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
)

const usersPath = "Users"

// credentials is the private auth record, keyed by normalised email. It is
// kept outside the gateway namespace so subscribers never see password
// hashes.
type credentials struct {
	UserID       string `json:"user_id"`
	DisplayName  string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// profile is the public user record written under Users/{id}.
type profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type sessionClaims struct {
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// RedisProvider authenticates against credential records in redis and keeps
// the active session as a signed token. Public profiles go through the
// gateway so they land in the same namespace other clients subscribe to.
type RedisProvider struct {
	client *redis.Client
	gw     gateway.Gateway
	secret []byte
	ttl    time.Duration
	log    zerolog.Logger

	mu    sync.RWMutex
	token string
}

func NewRedisProvider(client *redis.Client, gw gateway.Gateway, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *RedisProvider {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &RedisProvider{
		client: client,
		gw:     gw,
		secret: []byte(jwtSecret),
		ttl:    tokenTTL,
		log:    logger.With().Str("component", "identity").Logger(),
	}
}

func credentialsKey(email string) string {
	return "auth:" + strings.ToLower(strings.TrimSpace(email))
}

func (p *RedisProvider) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || password == "" {
		return Identity{}, ErrMissingFields
	}
	if displayName == "" {
		displayName = email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	id := xid.New().String()
	creds, err := json.Marshal(credentials{
		UserID:       id,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return Identity{}, fmt.Errorf("encode credentials: %w", err)
	}

	created, err := p.client.SetNX(ctx, credentialsKey(email), creds, 0).Result()
	if err != nil {
		return Identity{}, fmt.Errorf("store credentials: %w", err)
	}
	if !created {
		return Identity{}, ErrEmailTaken
	}

	record, err := json.Marshal(profile{ID: id, Username: displayName, Email: email})
	if err != nil {
		return Identity{}, fmt.Errorf("encode profile: %w", err)
	}
	if err := p.gw.Write(ctx, gateway.Join(usersPath, id), record); err != nil {
		return Identity{}, fmt.Errorf("write profile: %w", err)
	}

	who := Identity{ID: id, DisplayName: displayName, Email: email}
	if err := p.startSession(who); err != nil {
		return Identity{}, err
	}
	p.log.Info().Str("user_id", id).Msg("user registered")
	return who, nil
}

func (p *RedisProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Identity{}, ErrMissingFields
	}

	raw, err := p.client.Get(ctx, credentialsKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load credentials: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Identity{}, fmt.Errorf("decode credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}

	who := Identity{ID: creds.UserID, DisplayName: creds.DisplayName, Email: email}
	if err := p.startSession(who); err != nil {
		return Identity{}, err
	}
	p.log.Info().Str("user_id", who.ID).Msg("user signed in")
	return who, nil
}

// Current derives the session identity from the retained token. Expired or
// missing tokens read as signed out.
func (p *RedisProvider) Current() (Identity, bool) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()
	if token == "" {
		return Identity{}, false
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}
	return Identity{
		ID:          claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, true
}

func (p *RedisProvider) startSession(who Identity) error {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		DisplayName: who.DisplayName,
		Email:       who.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   who.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}).SignedString(p.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return nil
}
