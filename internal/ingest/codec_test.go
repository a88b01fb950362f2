// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeMessage(t *testing.T) {
	payload := []byte(`{
		"id": "msg-1",
		"user_id": "user-1",
		"guild_id": "guild-1",
		"channel_id": "general",
		"content": "hello there",
		"mentions": ["user-2"],
		"timestamp": "2026-08-30T12:00:00Z"
	}`)

	msg, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if msg.ID != "msg-1" || msg.UserID != "user-1" {
		t.Errorf("identity fields = %q/%q, want msg-1/user-1", msg.ID, msg.UserID)
	}
	if msg.Content != "hello there" {
		t.Errorf("content = %q", msg.Content)
	}
	if len(msg.Mentions) != 1 || msg.Mentions[0] != "user-2" {
		t.Errorf("mentions = %v", msg.Mentions)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", msg.Timestamp, want)
	}
}

func TestDecodeMessage_ZeroTimestampFilled(t *testing.T) {
	before := time.Now()
	msg, err := DecodeMessage([]byte(`{"id":"m","user_id":"u","content":"x"}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(time.Now()) {
		t.Errorf("timestamp %v not filled with current time", msg.Timestamp)
	}
}

func TestDecodeMessage_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"empty payload", "", ErrEmptyPayload},
		{"missing id", `{"user_id":"u","content":"x"}`, ErrMissingID},
		{"missing user", `{"id":"m","content":"x"}`, ErrMissingUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeMessage error = %v, want %v", err, tt.wantErr)
			}
			if !IsPermanent(err) {
				t.Errorf("expected %v to be permanent", err)
			}
		})
	}
}

func TestDecodeMessage_MalformedJSONIsPermanent(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"id": "m", "user_id":`))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if !IsPermanent(err) {
		t.Errorf("expected syntax error to be permanent, got %v", err)
	}
}
