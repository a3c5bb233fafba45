package cache

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haeli05/yields.to/internal/logger"
)

// Cache двошаровий key-value кеш: durable Redis (якщо налаштований)
// плюс in-process map як fallback. Redis визначається у момент
// виклику, а не на старті: KV_REDIS_ADDR та KV_REDIS_PASSWORD мають
// бути задані обидва, DISABLE_KV=1 вимикає durable шар повністю.
// Будь-яка помилка Redis деградує до пам'яті без помилки назовні.
type Cache struct {
	mu  sync.RWMutex
	mem map[string]memEntry

	clientMu sync.Mutex
	client   *redis.Client
	addr     string

	logger *logger.Logger
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// New створює новий кеш
func New(log *logger.Logger) *Cache {
	return &Cache{
		mem:    make(map[string]memEntry),
		logger: log.WithPrefix("CACHE"),
	}
}

func disabled() bool {
	v := strings.ToLower(os.Getenv("DISABLE_KV"))
	return v == "1" || v == "true"
}

// redisClient повертає клієнт, якщо Redis налаштований, інакше nil.
// Клієнт пересоздається при зміні адреси між викликами.
func (c *Cache) redisClient() *redis.Client {
	if disabled() {
		return nil
	}

	addr := os.Getenv("KV_REDIS_ADDR")
	password := os.Getenv("KV_REDIS_PASSWORD")
	if addr == "" || password == "" {
		return nil
	}

	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	if c.client == nil || c.addr != addr {
		if c.client != nil {
			c.client.Close()
		}
		c.client = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		c.addr = addr
	}

	return c.client
}

// GetJSON читає значення ключа і декодує в dest.
// Повертає false при промаху (або якщо durable шар недоступний
// і в пам'яті нічого немає).
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client := c.redisClient(); client != nil {
		data, err := client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(data, dest); jsonErr == nil {
				return true
			}
			c.logger.Warn("Пошкоджений JSON у Redis для ключа %s", key)
			return false
		case err == redis.Nil:
			// чистий промах durable шару
			return false
		default:
			c.logger.Warn("Redis недоступний, fallback до пам'яті: %v", err)
		}
	}

	return c.getMem(key, dest)
}

func (c *Cache) memRaw(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.mem[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *Cache) getMem(key string, dest interface{}) bool {
	data, ok := c.memRaw(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON кодує значення і записує з TTL. Пам'ять оновлюється
// завжди, Redis best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Не вдалося серіалізувати значення для ключа %s: %v", key, err)
		return
	}

	c.mu.Lock()
	c.mem[key] = memEntry{data: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()

	if client := c.redisClient(); client != nil {
		if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
			c.logger.Warn("Не вдалося записати ключ %s у Redis: %v", key, err)
		}
	}
}

// Delete видаляє ключ з обох шарів
func (c *Cache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()

	if client := c.redisClient(); client != nil {
		if err := client.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("Не вдалося видалити ключ %s з Redis: %v", key, err)
		}
	}
}

// Durable повідомляє, чи активний Redis шар зараз
func (c *Cache) Durable() bool {
	return c.redisClient() != nil
}

// Close закриває Redis з'єднання, якщо воно було відкрите
func (c *Cache) Close() {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}
