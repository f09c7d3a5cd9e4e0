package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string                    { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool              { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string              { return "chatops" }
func (c testSchedulerConfig) GetAsynqConcurrency() int               { return 4 }
func (c testSchedulerConfig) GetPendingSweepInterval() time.Duration { return 10 * time.Minute }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestSchedulePendingSweepEnqueues(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.SchedulePendingSweep(context.Background(), time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, key := range srv.Keys() {
		if strings.HasPrefix(key, "asynq:") && strings.Contains(key, "chatops") {
			found = true
		}
	}
	if !found {
		t.Errorf("no asynq task landed in redis, keys: %v", srv.Keys())
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.SchedulePendingSweep(context.Background(), time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
