// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

//go:build !nats

package ingest

import (
	"strings"
	"testing"
)

func TestNewConsumerStubReturnsError(t *testing.T) {
	c, err := NewConsumer(DefaultConfig("nats://127.0.0.1:4222"), nil)
	if err == nil {
		t.Fatal("expected error from stub constructor")
	}
	if c != nil {
		t.Error("expected nil consumer from stub")
	}
	if !strings.Contains(err.Error(), "-tags=nats") {
		t.Errorf("error %q should mention the nats build tag", err)
	}
}

func TestNewEmbeddedServerStubReturnsError(t *testing.T) {
	s, err := NewEmbeddedServer(DefaultServerConfig(t.TempDir()))
	if err == nil {
		t.Fatal("expected error from stub constructor")
	}
	if s != nil {
		t.Error("expected nil server from stub")
	}
}
