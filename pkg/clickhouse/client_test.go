package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:         "ch.local",
		Port:         9000,
		Database:     "kryptomarket",
		User:         "app",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		AsyncInsert:  true,
		WaitForAsync: true,
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/kryptomarket" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not escaped properly: %q", dsn)
	}
	q := u.Query()
	if q.Get("dial_timeout") != "5s" || q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	u, _ := url.Parse(buildDSN(ClientConfig{Host: "h", Port: 8123, Database: "d", UseHTTP: true}))
	if u.Scheme != "http" {
		t.Fatalf("expected http scheme, got %s", u.Scheme)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatalf("expected error")
	}
}
