package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps pending verification codes by phone.
type OTPStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Get returns "" when no code is pending.
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

// SMSSender delivers a verification code.  phone is in international
// digits, e.g. 9647701234567.
type SMSSender interface {
	SendVerification(ctx context.Context, phone, code string) error
}

// RedisOTPStore stores codes under verify:<phone>.
type RedisOTPStore struct{ rdb redis.Cmdable }

func NewRedisOTPStore(rdb redis.Cmdable) *RedisOTPStore { return &RedisOTPStore{rdb: rdb} }

func otpKey(phone string) string { return "verify:" + phone }

func (s *RedisOTPStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, otpKey(phone), code, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (string, error) {
	v, err := s.rdb.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, otpKey(phone)).Err()
}

// RedisIdempotency claims checkout keys with SET NX.
type RedisIdempotency struct{ rdb redis.Cmdable }

func NewRedisIdempotency(rdb redis.Cmdable) *RedisIdempotency { return &RedisIdempotency{rdb: rdb} }

func (s *RedisIdempotency) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, "idem:"+key, "1", ttl).Result()
}

func (s *RedisIdempotency) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, "idem:"+key).Err()
}

// OTPIQClient talks to the OTPIQ SMS API.
type OTPIQClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewOTPIQClient(baseURL, apiKey string) *OTPIQClient {
	return &OTPIQClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type otpiqRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	SMSType          string `json:"smsType"`
	VerificationCode string `json:"verificationCode"`
	Provider         string `json:"provider"`
}

// SendVerification posts a verification SMS.  Any non-2xx reply is an error.
func (c *OTPIQClient) SendVerification(ctx context.Context, phone, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("otpiq: api key is not set")
	}
	body, err := json.Marshal(otpiqRequest{
		PhoneNumber:      phone,
		SMSType:          "verification",
		VerificationCode: code,
		Provider:         "auto",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sms", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("otpiq: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("otpiq: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// GenerateCode returns a random 6-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
