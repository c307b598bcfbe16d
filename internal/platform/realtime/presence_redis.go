package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "presence:user:"
	connKeyPrefix = "presence:conn:"

	// Entries expire on their own so a crashed instance cannot leave users
	// online forever. Live connections are re-marked well within this window.
	presenceTTL = 24 * time.Hour
)

// RedisPresence stores presence in Redis so multiple server instances share
// one view of who is online.
type RedisPresence struct {
	rdb *redis.Client
}

func NewRedisPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb}
}

// markOfflineScript removes a connection and, only if it is still the user's
// current connection, the user entry. Running as a Lua script keeps the
// compare-and-delete atomic across instances.
var markOfflineScript = redis.NewScript(`
local userID = redis.call("GET", KEYS[1])
if not userID then
    return 0
end
redis.call("DEL", KEYS[1])
local userKey = ARGV[1] .. userID
if redis.call("GET", userKey) == ARGV[2] then
    redis.call("DEL", userKey)
end
return 1
`)

func (p *RedisPresence) MarkOnline(ctx context.Context, userID uuid.UUID, connID string) error {
	pipe := p.rdb.TxPipeline()
	// A previous connection for this user, if any, keeps its conn key; its
	// MarkOffline will no-op against the user entry because the value no
	// longer matches.
	pipe.Set(ctx, userKeyPrefix+userID.String(), connID, presenceTTL)
	pipe.Set(ctx, connKeyPrefix+connID, userID.String(), presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark online %s: %w", userID, err)
	}
	return nil
}

func (p *RedisPresence) MarkOffline(ctx context.Context, connID string) error {
	err := markOfflineScript.Run(ctx, p.rdb,
		[]string{connKeyPrefix + connID},
		userKeyPrefix, connID,
	).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("mark offline %s: %w", connID, err)
	}
	return nil
}

func (p *RedisPresence) Lookup(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	connID, err := p.rdb.Get(ctx, userKeyPrefix+userID.String()).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", userID, err)
	}
	return connID, true, nil
}

func (p *RedisPresence) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, ok, err := p.Lookup(ctx, userID)
	return ok, err
}
