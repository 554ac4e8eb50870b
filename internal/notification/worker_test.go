package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/daniel-odulate22/vigil-scan/internal/model"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []*webpush.Subscription
	bodies [][]byte
	status map[string]int
}

func (f *fakeSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub)
	f.bodies = append(f.bodies, payload)
	status := http.StatusCreated
	if f.status != nil {
		if s, ok := f.status[sub.Endpoint]; ok {
			status = s
		}
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	return db
}

func TestWorkerPoolDeliversToAllUserSubscriptions(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.PushSubscription{
		Endpoint: "https://push.example.com/a", UserID: "user-1", P256DH: "k1", Auth: "a1",
	}).Error)
	require.NoError(t, db.Create(&model.PushSubscription{
		Endpoint: "https://push.example.com/b", UserID: "user-1", P256DH: "k2", Auth: "a2",
	}).Error)
	require.NoError(t, db.Create(&model.PushSubscription{
		Endpoint: "https://push.example.com/other", UserID: "user-2", P256DH: "k3", Auth: "a3",
	}).Error)

	pool := NewWorkerPool(2, db, &webpush.Options{TTL: 30})
	sender := &fakeSender{}
	pool.sender = sender

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Notify("user-1", "Doses synced", "2 offline dose(s) uploaded.")

	assert.Eventually(t, func() bool {
		return sender.sentCount() == 2
	}, time.Second, 10*time.Millisecond)

	var job Job
	require.NoError(t, json.Unmarshal(sender.bodies[0], &job))
	assert.Equal(t, "Doses synced", job.Title)
	assert.Equal(t, "2 offline dose(s) uploaded.", job.Body)

	endpoints := map[string]bool{}
	sender.mu.Lock()
	for _, s := range sender.sent {
		endpoints[s.Endpoint] = true
	}
	sender.mu.Unlock()
	assert.True(t, endpoints["https://push.example.com/a"])
	assert.True(t, endpoints["https://push.example.com/b"])
	assert.False(t, endpoints["https://push.example.com/other"])
}

func TestWorkerPoolDeletesExpiredSubscriptions(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.PushSubscription{
		Endpoint: "https://push.example.com/gone", UserID: "user-1", P256DH: "k", Auth: "a",
	}).Error)

	pool := NewWorkerPool(1, db, &webpush.Options{TTL: 30})
	sender := &fakeSender{status: map[string]int{
		"https://push.example.com/gone": http.StatusGone,
	}}
	pool.sender = sender

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Notify("user-1", "Reminder", "Time for your evening dose.")

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&model.PushSubscription{}).Count(&count)
		return count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPoolNoSubscriptionsIsNoop(t *testing.T) {
	db := newTestDB(t)
	pool := NewWorkerPool(1, db, &webpush.Options{TTL: 30})
	sender := &fakeSender{}
	pool.sender = sender

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Notify("nobody", "Doses synced", "1 offline dose(s) uploaded.")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sender.sentCount())
}
