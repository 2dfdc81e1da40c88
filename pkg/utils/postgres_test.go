package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()
	if got.MaxOpenConns <= 0 || got.MaxIdleConns <= 0 {
		t.Fatalf("expected positive pool sizes, got %+v", got)
	}
	if got.ConnMaxLifetime <= 0 || got.ConnMaxIdleTime <= 0 || got.PingTimeout <= 0 {
		t.Fatalf("expected positive durations, got %+v", got)
	}
}

func TestPostgresPoolConfig_ExplicitValuesKept(t *testing.T) {
	in := PostgresPoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}
	got := in.withDefaults()
	if got.MaxOpenConns != 5 || got.MaxIdleConns != 2 || got.ConnMaxLifetime != time.Minute {
		t.Fatalf("explicit values overridden: %+v", got)
	}
	if got.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default, got %+v", got)
	}
}
