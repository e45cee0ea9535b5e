// Package session provides HTTP session management functionality with pluggable storage backends.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// idBytes is the amount of randomness in a session token.
const idBytes = 32

// Session represents an HTTP session with associated data and configuration.
type Session struct {
	// Unique identifier for this session
	id string

	// token the session was loaded with before Renew, deleted on save
	previousID string

	// used to determine the session duration
	createdAt time.Time

	// Session data as key-value pairs
	values map[string]any

	// Indicates if the session needs to be destroyed
	isDestroyed bool

	isModified bool

	// set when the session was read from the store
	isStored bool
}

// newSession creates a new session with a fresh identifier and an empty
// values map.
func newSession() *Session {
	return &Session{
		id:        genSessionID(),
		createdAt: time.Now(),
		values:    make(map[string]any),
	}
}

// Destroy removes the session
func (s *Session) Destroy() {
	s.Clear()
	s.isModified = true
	s.isDestroyed = true
}

// Renew swaps the session token for a new one while keeping the values.
// The old token is removed from the store when the session is saved. Call it
// whenever the privilege level changes, such as at sign in.
func (s *Session) Renew() {
	if s.previousID == "" {
		s.previousID = s.id
	}
	s.id = genSessionID()
	s.createdAt = time.Now()
	s.isModified = true
}

// Set adds or updates a value in the session.
func (s *Session) Set(key string, value any) {
	s.isModified = true
	s.values[key] = value
}

// SetWeak adds or updates a value in the session but doesn't set the modified
// flag. This is useful for values that are ok if they are not saved.
func (s *Session) SetWeak(key string, value any) {
	s.values[key] = value
}

func (s *Session) GetCreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) GetID() string {
	return s.id
}

// Has reports whether key is present in the session.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get retrieves a value from the session.
// Returns nil if the key doesn't exist.
func (s *Session) Get(key string) any {
	return s.values[key]
}

func (s *Session) GetInt(key string) int {
	v, _ := s.values[key].(int)
	return v
}

func (s *Session) GetInt64(key string) int64 {
	v, _ := s.values[key].(int64)
	return v
}

func (s *Session) GetUint(key string) uint {
	v, _ := s.values[key].(uint)
	return v
}

func (s *Session) GetBool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

func (s *Session) GetFloat32(key string) float32 {
	v, _ := s.values[key].(float32)
	return v
}

func (s *Session) GetFloat64(key string) float64 {
	v, _ := s.values[key].(float64)
	return v
}

func (s *Session) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Pop returns the string stored under key and removes it. Used for one-shot
// flash messages.
func (s *Session) Pop(key string) string {
	v, ok := s.values[key].(string)
	if !ok {
		return ""
	}
	s.Delete(key)
	return v
}

// Delete removes a value from the session.
func (s *Session) Delete(key string) {
	s.isModified = true
	delete(s.values, key)
}

// Clear removes all values from the session.
func (s *Session) Clear() {
	s.isModified = true
	s.values = make(map[string]any)
}

func genSessionID() string {
	id := make([]byte, idBytes)
	rand.Read(id)
	return hex.EncodeToString(id)
}
