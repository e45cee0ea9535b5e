package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bluescreen10/voxara/redisstore"
)

func TestSetGet(t *testing.T) {
	token := "abc123"
	expectedData := []byte("hello world")

	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb)
	if err := s.Set(token, expectedData, time.Now().Add(1*time.Hour)); err != nil {
		t.Fatal(err)
	}
	data, found, err := s.Get(token)

	if err != nil {
		t.Fatal(err)
	}

	if string(data) != string(expectedData) {
		t.Fatalf("expected '%s' got '%s'", expectedData, data)
	}

	if !found {
		t.Fatalf("expected 'true' got '%v'", found)
	}
}

func TestPrefix(t *testing.T) {
	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb, redisstore.WithPrefix("voxara:"))
	if err := s.Set("abc123", []byte("hello"), time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	n, err := rdb.Exists(context.Background(), "voxara:abc123").Result()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected key 'voxara:abc123' to exist")
	}
}

func TestEmptyGet(t *testing.T) {
	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb)
	_, found, err := s.Get("abc123")

	if err != nil {
		t.Fatal(err)
	}

	if found {
		t.Fatalf("expected 'false' got '%v'", found)
	}
}

func TestGetExpired(t *testing.T) {
	token := "abc123"

	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb)
	s.Set(token, []byte("hello world"), time.Now().Add(5*time.Millisecond))

	time.Sleep(50 * time.Millisecond)
	_, found, err := s.Get(token)

	if err != nil {
		t.Fatal(err)
	}

	if found {
		t.Fatalf("expected 'false' got '%v'", found)
	}
}

func TestSetPastExpiry(t *testing.T) {
	token := "abc123"

	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb)
	s.Set(token, []byte("hello world"), time.Now().Add(time.Hour))
	if err := s.Set(token, []byte("hello world"), time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	_, found, err := s.Get(token)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatalf("expected 'false' got '%v'", found)
	}
}

func TestDelete(t *testing.T) {
	token := "abc123"

	rdb, err := getRedisDB(t)
	if err != nil {
		t.Fatal(err)
	}

	s := redisstore.New(rdb)
	s.Set(token, []byte("hello world"), time.Now().Add(1*time.Hour))
	if err := s.Delete(token); err != nil {
		t.Fatal(err)
	}

	_, found, err := s.Get(token)
	if err != nil {
		t.Fatal(err)
	}

	if found {
		t.Fatalf("expected 'false' got '%v'", found)
	}
}

func getRedisDB(t *testing.T) (*redis.Client, error) {
	ctx := context.Background()
	server, err := testcontainers.Run(
		ctx, "redis:latest",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	testcontainers.CleanupContainer(t, server)
	if err != nil {
		return nil, err
	}
	endpoint, err := server.Endpoint(ctx, "")
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	t.Cleanup(func() { client.Close() })
	return client, nil
}
