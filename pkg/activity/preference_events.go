package activity

import (
	"strings"
	"time"
)

// Verbs emitted for preference lifecycle events.
const (
	VerbPreferenceSet         = "preference.set"
	VerbPreferenceRemoved     = "preference.removed"
	VerbDefaultsRegistered    = "preference.defaults.registered"
	ObjectTypePreference      = "preference"
	ObjectTypePreferenceSuite = "preference.suite"
)

// PreferenceEventInput describes the common fields for preference events.
type PreferenceEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Suite      string
	Key        string
	Kind       string
	NewValue   any
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildPreferenceSetEvent constructs an event for a committed write.
func BuildPreferenceSetEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceSet, ObjectTypePreference, input)
}

// BuildPreferenceRemovedEvent constructs an event for a committed removal.
func BuildPreferenceRemovedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceRemoved, ObjectTypePreference, input)
}

// BuildDefaultsRegisteredEvent constructs an event for a registration
// mapping replacement. The object is the suite, not a single key.
func BuildDefaultsRegisteredEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbDefaultsRegistered, ObjectTypePreferenceSuite, input)
}

func buildPreferenceEvent(verb, objectType string, input PreferenceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	suite := strings.TrimSpace(input.Suite)
	if suite != "" {
		metadata = ensureMetadata(metadata)
		metadata["suite"] = suite
	}
	if input.Kind != "" {
		metadata = ensureMetadata(metadata)
		metadata["kind"] = input.Kind
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	if len(input.Keys) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["keys"] = append([]string{}, input.Keys...)
	}

	objectID := strings.TrimSpace(input.Key)
	if objectType == ObjectTypePreferenceSuite || objectID == "" {
		objectID = suite
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
