// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package websocket streams moderation outcomes to connected dashboard
// clients in real time.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/logging"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeOutcome    = "moderation_outcome"
	MessageTypeQuarantine = "quarantine_update"
	MessageTypeSweep      = "sweep_completed"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// Uses priority-based selection so behavior stays predictable when multiple
// channels are ready: shutdown first, then client lifecycle events, then
// broadcast messages. Client state is always consistent before messages
// are processed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		// Priority 3: broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is not logged as an error because cancellation is
// expected during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients. Clients are
// sorted by ID so delivery order is consistent run to run; slow clients with
// full channels are dropped rather than blocking the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

// closeAllClients gracefully closes all connected WebSocket clients.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastJSON sends a JSON message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// BroadcastOutcome sends a moderation outcome to all connected clients.
func (h *Hub) BroadcastOutcome(outcome interface{}) {
	h.BroadcastJSON(MessageTypeOutcome, outcome)
}

// QuarantineUpdateData represents data sent with quarantine_update messages.
type QuarantineUpdateData struct {
	Timestamp  string `json:"timestamp"`
	UserID     string `json:"user_id"`
	GuildID    string `json:"guild_id,omitempty"`
	Active     bool   `json:"active"`
	TrustScore int    `json:"trust_score"`
	Until      string `json:"until,omitempty"`
}

// BroadcastQuarantine notifies all clients of a quarantine state change.
func (h *Hub) BroadcastQuarantine(userID, guildID string, active bool, trustScore int, until time.Time) {
	data := QuarantineUpdateData{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UserID:     userID,
		GuildID:    guildID,
		Active:     active,
		TrustScore: trustScore,
	}
	if !until.IsZero() {
		data.Until = until.UTC().Format(time.RFC3339)
	}

	message := Message{
		Type: MessageTypeQuarantine,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().Int("clients", h.GetClientCount()).Str("user", userID).Bool("active", active).Msg("broadcast quarantine_update")
	default:
		logging.Warn().Msg("broadcast channel full, dropping quarantine_update message")
	}
}

// SweepCompletedData represents data sent with sweep_completed messages.
type SweepCompletedData struct {
	Timestamp       string `json:"timestamp"`
	UsersDropped    int    `json:"users_dropped"`
	ProfilesPruned  int    `json:"profiles_pruned"`
	SweepDurationMs int64  `json:"sweep_duration_ms"`
}

// BroadcastSweepCompleted notifies all clients that a maintenance sweep has completed.
func (h *Hub) BroadcastSweepCompleted(usersDropped, profilesPruned int, durationMs int64) {
	data := SweepCompletedData{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		UsersDropped:    usersDropped,
		ProfilesPruned:  profilesPruned,
		SweepDurationMs: durationMs,
	}

	message := Message{
		Type: MessageTypeSweep,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().Int("clients", h.GetClientCount()).Msg("broadcast sweep_completed")
	default:
		logging.Warn().Msg("broadcast channel full, dropping sweep_completed message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
