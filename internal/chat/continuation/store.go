package continuation

import (
	"context"
	"encoding/json"
	"time"

	"inmochat_backend/platform/config"
	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// NotesStore is the slice of the team repository this package needs:
// raw access to a member's notes JSON bag.
type NotesStore interface {
	GetMemberNotes(ctx context.Context, memberID uuid.UUID) (string, error)
	SetMemberNotes(ctx context.Context, memberID uuid.UUID, notes string) error
}

// Store reads and writes pending actions through the notes bag.
type Store struct {
	notes NotesStore
	cfg   config.ChatConfig
	log   *logger.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewStore creates a continuation store.
func NewStore(notes NotesStore, cfg config.ChatConfig, log *logger.Logger) *Store {
	return &Store{notes: notes, cfg: cfg, log: log, now: time.Now}
}

// loadBag fetches and sanitizes the actor's notes bag. Malformed JSON
// degrades to {} and a sanitized bag is written back immediately so
// the stored copy heals on read.
func (s *Store) loadBag(ctx context.Context, actorID uuid.UUID) (string, error) {
	raw, err := s.notes.GetMemberNotes(ctx, actorID)
	if err != nil {
		return "", err
	}
	if raw == "" {
		raw = "{}"
	}

	clean, stripped, changed := SanitizeBag(raw)
	if changed {
		s.log.NotesRepaired(actorID.String(), stripped)
		if err := s.notes.SetMemberNotes(ctx, actorID, clean); err != nil {
			// The write-back is opportunistic; the cleaned in-memory
			// copy is still authoritative for this request.
			s.log.DatabaseError("continuation.heal", err)
		}
	}
	return clean, nil
}

// Slot states reported by readSlot.
const (
	slotEmpty = iota
	slotLive
	slotCorrupt
	slotExpired
)

// LoadPending returns the actor's live pending action with the highest
// precedence, or nil when there is none. Transient conversational
// prompts outrank the long-lived vendor question: a numeric reply must
// resolve the selection that produced it, never the question behind
// it. Expired or unreadable entries of every kind are deleted on
// sight; the kinds that lapsed on this load are reported so the caller
// can tell an expired prompt from plain silence.
func (s *Store) LoadPending(ctx context.Context, actorID uuid.UUID) (*Action, []string, error) {
	bag, err := s.loadBag(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	var found *Action
	var expired []string
	updated := bag
	for _, kind := range kindPrecedence {
		action, state := s.readSlot(updated, kind)
		switch state {
		case slotCorrupt, slotExpired:
			if out, err := sjson.Delete(updated, slotPath(kind)); err == nil {
				updated = out
			}
			if state == slotExpired {
				expired = append(expired, kind)
			}
		case slotLive:
			if found == nil {
				found = action
			}
		}
	}

	if updated != bag {
		if err := s.notes.SetMemberNotes(ctx, actorID, updated); err != nil {
			return found, expired, err
		}
	}
	return found, expired, nil
}

// LoadPendingKind returns the actor's live pending action of one kind,
// or nil. Unlike LoadPending it ignores precedence, so a handler that
// only answers vendor questions can find one behind an open selection.
func (s *Store) LoadPendingKind(ctx context.Context, actorID uuid.UUID, kind string) (*Action, error) {
	bag, err := s.loadBag(ctx, actorID)
	if err != nil {
		return nil, err
	}

	action, state := s.readSlot(bag, kind)
	if state == slotCorrupt || state == slotExpired {
		return nil, s.clear(ctx, actorID, bag, kind)
	}
	return action, nil
}

// readSlot decodes one kind's slot.
func (s *Store) readSlot(bag, kind string) (*Action, int) {
	node := gjson.Get(bag, slotPath(kind))
	if !node.Exists() {
		return nil, slotEmpty
	}
	if !node.IsObject() {
		return nil, slotCorrupt
	}

	var a Action
	if err := json.Unmarshal([]byte(node.Raw), &a); err != nil || a.Kind == "" {
		return nil, slotCorrupt
	}
	if a.Expired(s.now()) {
		return nil, slotExpired
	}
	return &a, slotLive
}

// Save persists a pending action in its kind's slot, stamping
// createdAt and the per-kind TTL. A previous action of the same kind
// is replaced; other kinds are left alone, so an open vendor question
// survives a disambiguation prompt.
func (s *Store) Save(ctx context.Context, actorID uuid.UUID, action Action) error {
	bag, err := s.loadBag(ctx, actorID)
	if err != nil {
		return err
	}

	now := s.now()
	action.CreatedAt = now
	action.ExpiresAt = now.Add(s.ttlFor(action.Kind))

	payload, err := json.Marshal(action)
	if err != nil {
		return err
	}

	updated, err := sjson.SetRaw(bag, slotPath(action.Kind), string(payload))
	if err != nil {
		return err
	}
	return s.notes.SetMemberNotes(ctx, actorID, updated)
}

// Resolve deletes the actor's pending action of the given kind.
// Deleting before any further processing is what makes consumption
// exactly-once.
func (s *Store) Resolve(ctx context.Context, actorID uuid.UUID, kind string) error {
	bag, err := s.loadBag(ctx, actorID)
	if err != nil {
		return err
	}
	if !gjson.Get(bag, slotPath(kind)).Exists() {
		return nil
	}
	return s.clear(ctx, actorID, bag, kind)
}

func (s *Store) clear(ctx context.Context, actorID uuid.UUID, bag, kind string) error {
	updated, err := sjson.Delete(bag, slotPath(kind))
	if err != nil {
		return err
	}
	return s.notes.SetMemberNotes(ctx, actorID, updated)
}

func (s *Store) ttlFor(kind string) time.Duration {
	switch kind {
	case KindCitaAction:
		return s.cfg.GetPendingCitaTTL()
	case KindVendorQuestion:
		return s.cfg.GetPendingQuestionTTL()
	default:
		return s.cfg.GetPendingSelectionTTL()
	}
}
