package postgres

import (
	"testing"
	"time"

	"github.com/linkyoself/linkyoself/config"
)

func TestConnString(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{Database: "links"},
			want: "postgres://localhost:5432/links?sslmode=disable",
		},
		{
			name: "credentials are escaped",
			cfg:  config.PostgresConfig{Host: "db", Port: 6543, User: "app", Password: "p@ss/word", Database: "links", SSLMode: "require"},
			want: "postgres://app:p%40ss%2Fword@db:6543/links?sslmode=require",
		},
		{
			name: "user without password",
			cfg:  config.PostgresConfig{Host: "db", User: "app", Database: "links"},
			want: "postgres://app@db:5432/links?sslmode=disable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConnString(tc.cfg); got != tc.want {
				t.Fatalf("ConnString() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSetDuration(t *testing.T) {
	d := time.Minute
	setDuration(&d, "")
	setDuration(&d, "soon")
	setDuration(&d, "-1s")
	if d != time.Minute {
		t.Fatalf("invalid values must be ignored, got %s", d)
	}
	setDuration(&d, "90s")
	if d != 90*time.Second {
		t.Fatalf("expected 90s, got %s", d)
	}
}
