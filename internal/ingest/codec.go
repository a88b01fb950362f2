// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/detection"
)

// Decode errors. All of them are permanent: redelivering the same payload
// cannot fix a malformed message, so callers should ack and count, not retry.
var (
	ErrEmptyPayload  = errors.New("ingest: empty payload")
	ErrMissingID     = errors.New("ingest: message id required")
	ErrMissingUserID = errors.New("ingest: user id required")
)

// DecodeMessage parses a chat message from its wire form.
//
// A zero timestamp is filled with the current time so that clients which
// omit it still produce a usable sliding-window observation. Missing id or
// user_id is rejected: without them the message cannot be attributed and
// decisions could not be deduplicated on redelivery.
func DecodeMessage(payload []byte) (*detection.ChatMessage, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	var msg detection.ChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("ingest: decode chat message: %w", err)
	}
	if msg.ID == "" {
		return nil, ErrMissingID
	}
	if msg.UserID == "" {
		return nil, ErrMissingUserID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}

// IsPermanent reports whether a decode error cannot be fixed by redelivery.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrEmptyPayload) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrMissingUserID) ||
		isSyntaxError(err)
}

func isSyntaxError(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}
