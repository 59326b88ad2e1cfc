package models

import (
	"encoding/json"
	"time"
)

// SignalType represents the type of a voice signaling message.
type SignalType string

const (
	SignalTypeOffer        SignalType = "offer"
	SignalTypeAnswer       SignalType = "answer"
	SignalTypeICECandidate SignalType = "ice-candidate"
	SignalTypeCallStart    SignalType = "call-start"
	SignalTypeCallEnd      SignalType = "call-end"
)

// Valid reports whether t is one of the defined signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeICECandidate,
		SignalTypeCallStart, SignalTypeCallEnd:
		return true
	}
	return false
}

// Signal is a single directed signaling message held for a recipient.
// The timestamp is assigned by the relay, never taken from the caller.
type Signal struct {
	ID        string          `json:"id"`
	Type      SignalType      `json:"type"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// SubmitSignalRequest is the body of POST /voice/signal. Payload fields are
// kept opaque; the relay never inspects session descriptions or candidates.
type SubmitSignalRequest struct {
	Type      SignalType      `json:"type" binding:"required"`
	From      string          `json:"from" binding:"required"`
	To        string          `json:"to" binding:"required"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// CallRequest is the body of POST /voice/start and POST /voice/end.
// Timestamp is a caller-supplied instant in unix milliseconds, used only as
// a relative duration basis.
type CallRequest struct {
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Timestamp int64  `json:"timestamp" binding:"required"`
}

// CallLogEntry is one append-only audit record emitted by the relay.
// DurationMS is set only for call-end records.
type CallLogEntry struct {
	From       string
	To         string
	SignalType SignalType
	Timestamp  time.Time
	DurationMS *int64
}
