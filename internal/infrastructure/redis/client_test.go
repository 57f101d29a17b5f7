package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)
	down := miniredis.RunT(t)
	downURL := fmt.Sprintf("redis://%s", down.Addr())
	down.Close()

	tests := []struct {
		name     string
		cfg      Config
		wantErr  bool
		wantPool int
	}{
		{name: "pool size override", cfg: Config{URL: fmt.Sprintf("redis://%s", s.Addr()), PoolSize: 4, ConnectTimeout: time.Second}, wantPool: 4},
		{name: "invalid url", cfg: Config{URL: "://bad-url"}, wantErr: true},
		{name: "server down", cfg: Config{URL: downURL, ConnectTimeout: time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected client, got error: %v", err)
			}
			defer client.Close()

			if got := client.Options().PoolSize; got != tt.wantPool {
				t.Fatalf("expected pool size %d, got %d", tt.wantPool, got)
			}
		})
	}
}
