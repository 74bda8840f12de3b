package message

// Message types
const (
	TypeText         = "TEXT"
	TypeAppointment  = "APPOINTMENT"
	TypePrescription = "PRESCRIPTION"
	TypeReferral     = "REFERRAL"
	TypeSystem       = "SYSTEM"
)

// Priorities
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Statuses
const (
	StatusSent      = "SENT"
	StatusDelivered = "DELIVERED"
	StatusRead      = "READ"
)

var statusRank = map[string]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// ValidType reports whether t is a known message type.
func ValidType(t string) bool {
	switch t {
	case TypeText, TypeAppointment, TypePrescription, TypeReferral, TypeSystem:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CanTransition reports whether a message status change from -> to is legal.
// Status only moves forward: SENT -> DELIVERED -> READ. A same-state
// transition is allowed so callers can treat it as a no-op.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}
