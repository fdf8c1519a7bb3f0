package utils

import (
	"database/sql"
	"slices"
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()
	if got.MaxOpenConns != 10 || got.MaxIdleConns != 10 {
		t.Fatalf("unexpected conn defaults: %+v", got)
	}
	if got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout %v", got.PingTimeout)
	}

	got = PostgresPoolConfig{MaxOpenConns: 4, MaxIdleConns: 8}.withDefaults()
	if got.MaxIdleConns != 4 {
		t.Fatalf("idle conns must not exceed open conns, got %d", got.MaxIdleConns)
	}
}

func TestPgxDriverRegistered(t *testing.T) {
	if !slices.Contains(sql.Drivers(), DriverPgx) {
		t.Fatalf("expected %q driver registered, got %v", DriverPgx, sql.Drivers())
	}
}
