package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-agent/internal/domain"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionRepository guarda cada sesion como un JSON bajo resume:session:<id>.
// ttl 0 significa sin expiracion.
type RedisSessionRepository struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		ttl:    ttl,
		prefix: "resume:session:",
	}
}

func (r *RedisSessionRepository) GetOrCreate(ctx context.Context, id string) (domain.Session, error) {
	session, err := r.Get(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return domain.Session{}, err
	}

	session = domain.NewSession(id)
	payload, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, fmt.Errorf("marshal session: %w", err)
	}
	created, err := r.client.SetNX(ctx, r.prefix+id, payload, r.ttl).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	if !created {
		// Otro proceso la creo entre el GET y el SETNX.
		return r.Get(ctx, id)
	}
	return session, nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return normalizeSession(session), nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, r.prefix+session.ID, payload, r.ttl).Err()
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

// normalizeSession evita slices/mapas nil despues de deserializar.
func normalizeSession(s domain.Session) domain.Session {
	if s.Messages == nil {
		s.Messages = []domain.Message{}
	}
	if s.Corrections == nil {
		s.Corrections = []string{}
	}
	if s.UserInfo == nil {
		s.UserInfo = map[string]any{}
	}
	return s
}
