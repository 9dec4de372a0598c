package rdx

import (
	"log"
	"os"
	"time"

	"veloura/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

// SetWithExpiry stores a value under key with a TTL.
func SetWithExpiry(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

// Get returns the value for key, or "" when the key is missing or expired.
func Get(key string) string {
	val, err := Conn.Get(globals.Ctx, key).Result()
	if err == redis.Nil {
		return ""
	}
	if err != nil {
		log.Println("Redis GET error:", err)
		return ""
	}
	return val
}

func Del(key string) {
	if err := Conn.Del(globals.Ctx, key).Err(); err != nil {
		log.Println("Redis DEL error:", err)
	}
}
