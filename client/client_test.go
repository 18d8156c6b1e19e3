package client

import (
	"crypto/tls"
	"testing"
)

func TestOptionsAddrDefaults(t *testing.T) {
	if got := (Options{}).Addr(); got != "127.0.0.1:6379" {
		t.Errorf("expected default addr 127.0.0.1:6379, got %s", got)
	}
	if got := (Options{Host: "db.example.com", Port: 7000}).Addr(); got != "db.example.com:7000" {
		t.Errorf("expected db.example.com:7000, got %s", got)
	}
}

func TestTLSConfig(t *testing.T) {
	if cfg := (Options{}).tlsConfig(); cfg != nil {
		t.Error("expected nil TLS config when TLS is disabled")
	}

	cfg := (Options{UseTLS: true}).tlsConfig()
	if cfg == nil {
		t.Fatal("expected a TLS config")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2 minimum, got %d", cfg.MinVersion)
	}
	if cfg.InsecureSkipVerify {
		t.Error("verification must be on by default")
	}

	skip := (Options{UseTLS: true, TLSSkipVerify: true}).tlsConfig()
	if !skip.InsecureSkipVerify {
		t.Error("expected skip-verify to be honored")
	}
}
