package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/triage/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	return newStoreWithClient(c), c
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

// commands pairs each write-side Store method with the command it must issue.
var commands = []struct {
	name  string
	op    string
	match []string
	reply rueidis.RedisMessage
	call  func(*Store) error
}{
	{
		name: "ping", op: db.OpPing,
		match: []string{"PING"},
		reply: mock.RedisString("PONG"),
		call:  func(s *Store) error { return s.Ping(context.Background()) },
	},
	{
		name: "set", op: db.OpSet,
		match: []string{"SET", "k", "v"},
		reply: mock.RedisString("OK"),
		call:  func(s *Store) error { return s.Set(context.Background(), "k", []byte("v")) },
	},
	{
		name: "set with ttl", op: db.OpSet,
		match: []string{"SET", "k", "v", "EX", "60"},
		reply: mock.RedisString("OK"),
		call:  func(s *Store) error { return s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute) },
	},
	{
		name: "zero ttl is plain set", op: db.OpSet,
		match: []string{"SET", "k", "v"},
		reply: mock.RedisString("OK"),
		call:  func(s *Store) error { return s.SetWithTTL(context.Background(), "k", []byte("v"), 0) },
	},
	{
		name: "incrby", op: db.OpIncrBy,
		match: []string{"INCRBY", "triage:budget", "5"},
		reply: mock.RedisInt64(5),
		call:  func(s *Store) error { return s.IncrBy(context.Background(), "triage:budget", 5) },
	},
	{
		name: "expire", op: db.OpExpire,
		match: []string{"EXPIRE", "k", "300"},
		reply: mock.RedisInt64(1),
		call:  func(s *Store) error { return s.Expire(context.Background(), "k", 5*time.Minute, false) },
	},
	{
		name: "expire nx", op: db.OpExpire,
		match: []string{"EXPIRE", "k", "300", "NX"},
		reply: mock.RedisInt64(1),
		call:  func(s *Store) error { return s.Expire(context.Background(), "k", 5*time.Minute, true) },
	},
}

func TestCommands_Success(t *testing.T) {
	for _, tc := range commands {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.match...)).Return(mock.Result(tc.reply))
			if err := tc.call(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCommands_ErrorCarriesOp(t *testing.T) {
	cause := errors.New("broken pipe")
	for _, tc := range commands {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.match...)).Return(mock.ErrorResult(cause))

			err := tc.call(s)
			var dbErr *db.Error
			if !errors.As(err, &dbErr) || dbErr.Op != tc.op {
				t.Fatalf("expected db.Error with op %s, got %v", tc.op, err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("cause lost: %v", err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "hit")).
			Return(mock.Result(mock.RedisBlobString("value"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "miss")).
			Return(mock.Result(mock.RedisNil())),
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "down")).
			Return(mock.ErrorResult(errors.New("connection reset"))),
	)

	data, err := s.Get(context.Background(), "hit")
	if err != nil || string(data) != "value" {
		t.Fatalf("hit: data=%q err=%v", data, err)
	}
	if _, err := s.Get(context.Background(), "miss"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("miss: expected ErrKeyNotFound, got %v", err)
	}
	_, err = s.Get(context.Background(), "down")
	var dbErr *db.Error
	if errors.Is(err, db.ErrKeyNotFound) || !errors.As(err, &dbErr) || dbErr.Op != db.OpGet {
		t.Errorf("down: expected db.Error with op GET, got %v", err)
	}
}

func TestWaitForReady_ImmediatePing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))

	began := time.Now()
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(began) >= firstRetryDelay {
		t.Error("first ping must not wait for the retry delay")
	}
}

func TestWaitForReady_RecoversAfterFailures(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("connection refused"))).Times(2),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)
	if err := s.WaitForReady(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
