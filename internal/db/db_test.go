package db

import (
	"testing"

	"github.com/avelar/launchdeck/internal/config"
	"github.com/avelar/launchdeck/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		database string
		want     string
	}{
		{
			name:     "default local",
			host:     "127.0.0.1",
			port:     3306,
			database: "launchdeck_demo",
			want:     "root@tcp(127.0.0.1:3306)/launchdeck_demo?parseTime=true",
		},
		{
			name:     "custom host and port",
			host:     "10.0.0.5",
			port:     3307,
			database: "launchdeck_artemis",
			want:     "root@tcp(10.0.0.5:3307)/launchdeck_artemis?parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.host, tt.port, tt.database); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestConnect_SQLiteAndMigrate(t *testing.T) {
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Unique index on (poll, actor) must reject a second vote row.
	v1 := models.PollVote{PollID: 1, ActorID: "alice", Position: 0}
	if err := gormDB.Create(&v1).Error; err != nil {
		t.Fatalf("first vote: %v", err)
	}
	v2 := models.PollVote{PollID: 1, ActorID: "alice", Position: 2}
	if err := gormDB.Create(&v2).Error; err == nil {
		t.Fatal("expected unique index violation for duplicate vote")
	}
}
