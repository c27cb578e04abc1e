package tef_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/infrastructure/tef"
)

func TestLocalLock_Exclusivo(t *testing.T) {
	l := tef.NewLocalLock()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	assert.True(t, l.Held())

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(waitCtx), context.DeadlineExceeded, "segundo acquire espera")

	require.NoError(t, l.Release(ctx))
	assert.False(t, l.Held())
	require.NoError(t, l.Acquire(ctx), "libre tras el release")
}

func TestLocalLock_ReleaseSinAcquire(t *testing.T) {
	l := tef.NewLocalLock()
	assert.NoError(t, l.Release(context.Background()))
	assert.NoError(t, l.Release(context.Background()))
	assert.False(t, l.Held())
}

func TestLocalLock_DesbloqueaAlQueEspera(t *testing.T) {
	l := tef.NewLocalLock()
	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, l.Release(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("el segundo acquire no se desbloqueó")
	}
}

// Integración con Redis real: PDV_TEST_REDIS_ADDR=localhost:6379
func TestRedisLock_Integracion(t *testing.T) {
	addr := os.Getenv("PDV_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set PDV_TEST_REDIS_ADDR to run redis integration test")
	}
	ctx := context.Background()
	key := "pdv:test:tef:" + time.Now().Format("150405.000000")
	cfg := tef.RedisLockConfig{Addr: addr, Key: key, TTL: 5 * time.Second, Poll: 10 * time.Millisecond}

	a := tef.NewRedisLock(cfg)
	b := tef.NewRedisLock(cfg)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	require.NoError(t, a.Ping(ctx))

	require.NoError(t, a.Acquire(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, b.Acquire(waitCtx), "otra caja no toma el TEF ocupado")

	require.NoError(t, b.Release(ctx), "release sin token no borra la clave ajena")
	assert.Error(t, func() error {
		c, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		return b.Acquire(c)
	}())

	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Acquire(ctx))
	require.NoError(t, b.Release(ctx))
}
