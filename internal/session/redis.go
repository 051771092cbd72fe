package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for advising sessions that should
// survive process restarts. History is a list of JSON turns, the schedule a
// set of section ids.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode history turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	if err := s.client.RPush(ctx, historyKey(sessionID), values...).Err(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *RedisStore) Schedule(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, scheduleKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) AddSection(ctx context.Context, sessionID, sectionID string) error {
	return s.client.SAdd(ctx, scheduleKey(sessionID), sectionID).Err()
}

func (s *RedisStore) RemoveSection(ctx context.Context, sessionID, sectionID string) error {
	return s.client.SRem(ctx, scheduleKey(sessionID), sectionID).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, historyKey(sessionID), scheduleKey(sessionID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func historyKey(sessionID string) string {
	return "courserag:session:" + sessionID + ":history"
}

func scheduleKey(sessionID string) string {
	return "courserag:session:" + sessionID + ":schedule"
}
