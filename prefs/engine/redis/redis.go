// Package redis is a prefs.Engine that stores a suite in a Redis hash and
// fans change notifications out over pub/sub, so every process bound to
// the suite sees every commit.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pnewell/skip-foundation/prefs"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Engine keeps suite entries in the hash "prefs:<suite>" and publishes each
// changed key on "prefs:<suite>:changes". Subscribers are called on the
// engine's pub/sub goroutine, including for this process's own commits.
type Engine struct {
	prefs.Broadcaster

	client  *goredis.Client
	suite   string
	hash    string
	channel string
	logger  *zap.Logger

	pubsub    *goredis.PubSub
	doneCh    chan struct{}
	closeOnce sync.Once
}

var _ prefs.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for pub/sub diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// HashKey is the Redis hash holding suite.
func HashKey(suite string) string {
	return "prefs:" + suite
}

// ChannelName is the pub/sub channel carrying suite's changed keys.
func ChannelName(suite string) string {
	return HashKey(suite) + ":changes"
}

// Dial parses a redis:// URL and verifies the server answers.
func Dial(ctx context.Context, rawURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// Open binds an engine to suite on client and subscribes to its change
// channel. The client is not owned; Close leaves it open.
func Open(ctx context.Context, client *goredis.Client, suite string, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	if strings.TrimSpace(suite) == "" {
		return nil, errors.New("redis: suite is required")
	}
	e := &Engine{
		client:  client,
		suite:   suite,
		hash:    HashKey(suite),
		channel: ChannelName(suite),
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	pubsub := client.Subscribe(ctx, e.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", e.channel, err)
	}
	e.pubsub = pubsub
	go e.run(pubsub.Channel())
	return e, nil
}

// Close stops the pub/sub loop.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.pubsub.Close()
		<-e.doneCh
	})
	return err
}

func (e *Engine) run(messages <-chan *goredis.Message) {
	defer close(e.doneCh)
	for msg := range messages {
		e.Notify(msg.Payload)
	}
}

func (e *Engine) Get(ctx context.Context, key string) (prefs.Value, bool, error) {
	raw, err := e.client.HGet(ctx, e.hash, key).Result()
	if errors.Is(err, goredis.Nil) {
		return prefs.Value{}, false, nil
	}
	if err != nil {
		return prefs.Value{}, false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	value, err := decode(raw)
	if err != nil {
		return prefs.Value{}, false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return value, true, nil
}

func (e *Engine) All(ctx context.Context) (map[string]prefs.Value, error) {
	raw, err := e.client.HGetAll(ctx, e.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list: %w", err)
	}
	out := make(map[string]prefs.Value, len(raw))
	for key, field := range raw {
		value, err := decode(field)
		if err != nil {
			return nil, fmt.Errorf("redis: entry %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func (e *Engine) Edit() prefs.Editor {
	return prefs.NewBatch(e.commit)
}

// commit applies edits inside WATCH/MULTI so concurrent writers to the same
// suite cannot interleave between the diff and the write.
func (e *Engine) commit(ctx context.Context, edits []prefs.Edit) error {
	if len(edits) == 0 {
		return ctx.Err()
	}
	keys := prefs.Keys(edits)
	err := e.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.HMGet(ctx, e.hash, keys...).Result()
		if err != nil {
			return err
		}
		type write struct {
			key     string
			encoded string
			remove  bool
		}
		var writes []write
		for i, edit := range edits {
			raw, present := current[i].(string)
			if edit.Remove {
				if present {
					writes = append(writes, write{key: edit.Key, remove: true})
				}
				continue
			}
			encoded, err := encode(edit.Value)
			if err != nil {
				return err
			}
			if present && raw == encoded {
				continue
			}
			writes = append(writes, write{key: edit.Key, encoded: encoded})
		}
		if len(writes) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for _, w := range writes {
				if w.remove {
					pipe.HDel(ctx, e.hash, w.key)
				} else {
					pipe.HSet(ctx, e.hash, w.key, w.encoded)
				}
				pipe.Publish(ctx, e.channel, w.key)
			}
			return nil
		})
		return err
	}, e.hash)
	if err != nil {
		return fmt.Errorf("redis: commit %s: %w", e.suite, err)
	}
	return nil
}

func encode(value prefs.Value) (string, error) {
	kind, text, err := prefs.EncodeText(value)
	if err != nil {
		return "", err
	}
	return kind + ":" + text, nil
}

func decode(raw string) (prefs.Value, error) {
	kind, text, ok := strings.Cut(raw, ":")
	if !ok {
		return prefs.Value{}, fmt.Errorf("redis: malformed entry %q", raw)
	}
	return prefs.DecodeText(kind, text)
}
