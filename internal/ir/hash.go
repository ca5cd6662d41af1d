package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// leaves room for algorithm migration without ambiguity.
const (
	DomainRecord   = "cadenza/record/v1"
	DomainBinding  = "cadenza/binding/v1"
	DomainConflict = "cadenza/conflict/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data). The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID for an action record.
// The ID is stable across restarts and replays given the same fields.
func RecordID(concept, action, variant string, input, output Object, flowID string, seq int64) (string, error) {
	obj := Object{
		"concept": String(concept),
		"action":  String(action),
		"variant": String(variant),
		"input":   input,
		"output":  output,
		"flow":    String(flowID),
		"seq":     Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordID: marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// BindingHash computes the idempotency hash for a binding environment.
// Used to key sync firings: the same (record, sync, bindings) triple
// fires at most once.
func BindingHash(bindings Object) (string, error) {
	canonical, err := MarshalCanonical(bindings)
	if err != nil {
		return "", fmt.Errorf("BindingHash: marshal: %w", err)
	}
	return hashWithDomain(DomainBinding, canonical), nil
}

// ConflictID computes the content-addressed ID for a pending conflict
// record. Submitting the same conflict twice yields the same ID, so
// the escalation queue stays duplicate-free.
func ConflictID(payload Object) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("ConflictID: marshal: %w", err)
	}
	return hashWithDomain(DomainConflict, canonical), nil
}

// MustRecordID is RecordID but panics on error. Test helper.
func MustRecordID(concept, action, variant string, input, output Object, flowID string, seq int64) string {
	id, err := RecordID(concept, action, variant, input, output, flowID, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustBindingHash is BindingHash but panics on error. Test helper.
func MustBindingHash(bindings Object) string {
	h, err := BindingHash(bindings)
	if err != nil {
		panic(err)
	}
	return h
}
