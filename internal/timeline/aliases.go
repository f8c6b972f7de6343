// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package timeline

// Recognized alias attribute keys, compared after the marker is stripped.
const (
	AttributeName  = "name"
	AttributeTopic = "topic"
)

// AliasRecord binds a display name to a topic for one entity.
//
// Name and Topic arrive independently on separate alias-definition topics, in
// either order. The record is complete once both are non-empty.
type AliasRecord struct {
	EntityID string
	Name     string
	Topic    string

	// Attributes keeps unrecognized attribute keys verbatim.
	Attributes map[string]string

	// asserted is the registry sequence of the last upsert, of any attribute,
	// that left the record complete. Zero while incomplete.
	asserted uint64
}

// Complete reports whether both the name and the topic are set.
func (r AliasRecord) Complete() bool {
	return r.Name != "" && r.Topic != ""
}

// AliasRegistry holds alias records keyed by entity id.
//
// Records are never deleted. When several complete records point at the same
// topic, the one most recently completed or re-asserted wins resolution.
// Not safe for concurrent use.
type AliasRegistry struct {
	records map[string]*AliasRecord
	seq     uint64
}

// NewAliasRegistry creates an empty registry.
func NewAliasRegistry() *AliasRegistry {
	return &AliasRegistry{records: make(map[string]*AliasRecord)}
}

// UpsertAttribute sets one attribute of the entity's record, creating the
// record if needed, and returns a copy of the result.
func (a *AliasRegistry) UpsertAttribute(entityID, key, value string) AliasRecord {
	rec, ok := a.records[entityID]
	if !ok {
		rec = &AliasRecord{EntityID: entityID}
		a.records[entityID] = rec
	}

	switch key {
	case AttributeName:
		rec.Name = value
	case AttributeTopic:
		rec.Topic = value
	default:
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]string)
		}
		rec.Attributes[key] = value
	}

	// Any upsert on a complete record re-asserts it, since the router
	// emits an aliased write for it.
	if rec.Complete() {
		a.seq++
		rec.asserted = a.seq
	} else {
		rec.asserted = 0
	}

	return rec.clone()
}

// ResolveAliasForTopic returns the complete record whose topic equals topic.
// Among several candidates the most recently asserted one is returned.
//
// TODO: keep a topic -> entity index if deployments grow past a few hundred
// aliases; the scan runs once per changed data message.
func (a *AliasRegistry) ResolveAliasForTopic(topic string) (AliasRecord, bool) {
	var best *AliasRecord
	for _, rec := range a.records {
		if rec.asserted == 0 || rec.Topic != topic {
			continue
		}
		if best == nil || rec.asserted > best.asserted {
			best = rec
		}
	}
	if best == nil {
		return AliasRecord{}, false
	}
	return best.clone(), true
}

// Get returns a copy of the record for entityID.
func (a *AliasRegistry) Get(entityID string) (AliasRecord, bool) {
	rec, ok := a.records[entityID]
	if !ok {
		return AliasRecord{}, false
	}
	return rec.clone(), true
}

// Len returns the number of entities with at least one attribute.
func (a *AliasRegistry) Len() int {
	return len(a.records)
}

// CompleteCount returns the number of complete records.
func (a *AliasRegistry) CompleteCount() int {
	n := 0
	for _, rec := range a.records {
		if rec.Complete() {
			n++
		}
	}
	return n
}

func (r *AliasRecord) clone() AliasRecord {
	c := *r
	if r.Attributes != nil {
		c.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}
