// Package mocks provides test doubles for the audit use cases.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

// Entry is a single captured Record call.
type Entry struct {
	Action       string
	ActorID      *uuid.UUID
	ResourceType string
	ResourceID   string
	Outcome      auditDomain.Outcome
	Metadata     map[string]any
}

// RecorderSpy is a Recorder that keeps every entry in memory.
type RecorderSpy struct {
	mu      sync.Mutex
	entries []Entry
}

// Record captures the entry.
func (r *RecorderSpy) Record(
	_ context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	outcome auditDomain.Outcome,
	metadata map[string]any,
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		Action:       action,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		Metadata:     metadata,
	})
}

// RecordSuccess captures the entry with OutcomeSuccess.
func (r *RecorderSpy) RecordSuccess(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	metadata map[string]any,
) {
	r.Record(ctx, action, actorID, resourceType, resourceID, auditDomain.OutcomeSuccess, metadata)
}

// RecordFailure captures the entry with OutcomeFailure.
func (r *RecorderSpy) RecordFailure(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	metadata map[string]any,
) {
	r.Record(ctx, action, actorID, resourceType, resourceID, auditDomain.OutcomeFailure, metadata)
}

// Entries returns a copy of the captured entries.
func (r *RecorderSpy) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Entry(nil), r.entries...)
}

// Actions returns the captured actions in order.
func (r *RecorderSpy) Actions() []string {
	entries := r.Entries()
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// Last returns the most recent entry, or the zero Entry when none was captured.
func (r *RecorderSpy) Last() Entry {
	entries := r.Entries()
	if len(entries) == 0 {
		return Entry{}
	}
	return entries[len(entries)-1]
}
