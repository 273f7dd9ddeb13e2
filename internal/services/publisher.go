package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"

	"studynotes-backend/internal/models"
)

// UserUpdatesChannel is the Redis channel the websocket hub subscribes to for a user.
func UserUpdatesChannel(userID int64) string {
	return "user_updates:" + strconv.FormatInt(userID, 10)
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (p *RedisPublisher) PublishUpdate(ctx context.Context, userID int64, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, UserUpdatesChannel(userID), string(data)).Err()
}
