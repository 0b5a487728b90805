package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Entries outlive their expiry briefly so an expired code reports ErrOTPExpired rather than ErrOTPNotFound
const otpRetention = time.Minute

// OTPEntry is a pending verification code
type OTPEntry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPStore keeps pending codes keyed by email
type OTPStore interface {
	Save(ctx context.Context, email string, entry OTPEntry) error
	Load(ctx context.Context, email string) (OTPEntry, error)
	Delete(ctx context.Context, email string) error
}

// NewOTPStore uses Redis when redisURL is set and reachable, memory otherwise
func NewOTPStore(redisURL string) OTPStore {
	if redisURL == "" {
		return NewMemoryOTPStore()
	}
	s, err := NewRedisOTPStore(redisURL)
	if err != nil {
		slog.Warn("[Auth] Redis unavailable, keeping codes in memory", "error", err)
		return NewMemoryOTPStore()
	}
	return s
}

// MemoryOTPStore keeps codes in process memory
type MemoryOTPStore struct {
	cache *gocache.Cache
}

// NewMemoryOTPStore creates an in-memory store
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{cache: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

// Save stores a code until shortly after it expires
func (s *MemoryOTPStore) Save(_ context.Context, email string, entry OTPEntry) error {
	s.cache.Set(email, entry, retention(entry))
	return nil
}

// Load returns the pending code
func (s *MemoryOTPStore) Load(_ context.Context, email string) (OTPEntry, error) {
	v, ok := s.cache.Get(email)
	if !ok {
		return OTPEntry{}, ErrOTPNotFound
	}
	return v.(OTPEntry), nil
}

// Delete removes the pending code
func (s *MemoryOTPStore) Delete(_ context.Context, email string) error {
	s.cache.Delete(email)
	return nil
}

// RedisOTPStore shares codes between server instances
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore connects and pings the server
func NewRedisOTPStore(redisURL string) (*RedisOTPStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	slog.Info("[Auth] Successfully connected to Redis", "addr", opts.Addr)
	return &RedisOTPStore{client: client}, nil
}

// Save stores a code until shortly after it expires
func (s *RedisOTPStore) Save(ctx context.Context, email string, entry OTPEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(email), data, retention(entry)).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Load returns the pending code
func (s *RedisOTPStore) Load(ctx context.Context, email string) (OTPEntry, error) {
	data, err := s.client.Get(ctx, otpKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return OTPEntry{}, ErrOTPNotFound
		}
		return OTPEntry{}, fmt.Errorf("load otp: %w", err)
	}

	var entry OTPEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return OTPEntry{}, fmt.Errorf("decode otp: %w", err)
	}
	return entry, nil
}

// Delete removes the pending code
func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKey(email)).Err()
}

// Close releases the connection
func (s *RedisOTPStore) Close() error {
	return s.client.Close()
}

func otpKey(email string) string {
	return "verisense:otp:" + email
}

func retention(entry OTPEntry) time.Duration {
	ttl := time.Until(entry.ExpiresAt) + otpRetention
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

// GenerateOTP returns a random 6-digit code
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
