package tef

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
)

var _ sale.TerminalLock = (*RedisLock)(nil)

// releaseScript borra la clave solo si todavía guarda nuestro token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock bloqueo del TEF compartido entre procesos: SET NX PX con un token
// por adquisición. El TTL evita que una caja caída deje el pinpad tomado para siempre.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	poll   time.Duration

	mu    sync.Mutex
	token string
}

// RedisLockConfig parámetros del bloqueo distribuido.
type RedisLockConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
	Poll     time.Duration
}

// NewRedisLock crea el cliente de Redis y el bloqueo.
func NewRedisLock(cfg RedisLockConfig) *RedisLock {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisLockWithClient(client, cfg.Key, cfg.TTL, cfg.Poll)
}

// NewRedisLockWithClient usa un cliente existente.
func NewRedisLockWithClient(client *redis.Client, key string, ttl, poll time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}
	return &RedisLock{client: client, key: key, ttl: ttl, poll: poll}
}

// Ping verifica la conexión con Redis.
func (l *RedisLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (l *RedisLock) Close() error {
	return l.client.Close()
}

// Acquire reintenta cada poll hasta tomar la clave o hasta que se cancele el contexto.
func (l *RedisLock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis SETNX %s: %w", l.key, err)
		}
		if ok {
			l.mu.Lock()
			l.token = token
			l.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("esperando el TEF: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release borra la clave si sigue siendo nuestra. Sin token no hace nada.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}
	err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}
