package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

var ErrQueueFull = errors.New("event mirror queue full")

const (
	DefaultChannel = "glossary-run-events"
	queueSize      = 256
	publishTimeout = 2 * time.Second
)

type Config struct {
	Addr    string
	Channel string
}

// RedisBus mirrors run events onto a Redis pub/sub channel. Publish only
// enqueues; a single goroutine drains the queue so callers never wait on Redis.
type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string

	queue     chan types.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewRedisBus(cfg Config, log *logger.Logger) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisBus(rdb, ch, log), nil
}

func newRedisBus(rdb *goredis.Client, channel string, log *logger.Logger) *RedisBus {
	b := &RedisBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
		queue:   make(chan types.Event, queueSize),
		done:    make(chan struct{}),
	}
	go b.drain()
	return b
}

func (b *RedisBus) Publish(ctx context.Context, ev types.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	select {
	case <-b.done:
		return fmt.Errorf("redis event bus closed")
	default:
	}
	select {
	case b.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *RedisBus) drain() {
	for {
		select {
		case <-b.done:
			return
		case ev := <-b.queue:
			raw, err := json.Marshal(ev)
			if err != nil {
				b.log.Warn("bad run event payload", "error", err)
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
				b.log.Warn("redis publish failed", "run_id", ev.RunID, "error", err)
			}
			cancel()
		}
	}
}

func (b *RedisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	b.closeOnce.Do(func() { close(b.done) })
	return b.rdb.Close()
}
