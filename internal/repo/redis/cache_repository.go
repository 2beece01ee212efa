package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "todo:tasks"

// CacheRepository кэширует полный список задач одним ключом.
type CacheRepository struct {
	client *redis.Client
	key    string
}

func NewCacheRepository(addr, password string, db int) *CacheRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return NewCacheRepositoryWithClient(client, defaultKey)
}

func NewCacheRepositoryWithClient(client *redis.Client, key string) *CacheRepository {
	if key == "" {
		key = defaultKey
	}
	return &CacheRepository{client: client, key: key}
}

func (c *CacheRepository) SetTasks(ctx context.Context, tasks []entity.Task, ttl time.Duration) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *CacheRepository) GetTasks(ctx context.Context) ([]entity.Task, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var tasks []entity.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}
	return tasks, true, nil
}

func (c *CacheRepository) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Ping проверяет подключение к Redis
func (c *CacheRepository) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CacheRepository) Close() error {
	return c.client.Close()
}
