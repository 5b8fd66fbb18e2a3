// Package snapshot keeps a local, queryable copy of RushDB records and the
// relationships between them.
//
// A Snapshot stores everything in a key-value Backend (in memory or on
// disk with BadgerDB) under a configurable key prefix:
//
//	{prefix}:rec:{id}                  → msgpack record payload
//	{prefix}:lbl:{label}:{id}          → empty (label index)
//	{prefix}:rel:{src}:{type}:{dst}    → msgpack endpoint labels
//	{prefix}:rin:{dst}:{type}:{src}    → empty (reverse index)
//
// Use Pull to fill a snapshot from a live deployment.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
	"github.com/vmihailenco/msgpack/v5"
)

// Errors returned by Snapshot.
var (
	// ErrMissingID is returned when a record has no __id.
	ErrMissingID = errors.New("snapshot: record has no id")

	// ErrInvalidSegment is returned when an id, label or relationship type
	// contains the key separator.
	ErrInvalidSegment = errors.New("snapshot: value contains key separator")
)

// Direction selects which relationships of a record to return.
type Direction int

const (
	// Both returns incoming and outgoing relationships.
	Both Direction = iota
	// Outgoing returns relationships whose source is the record.
	Outgoing
	// Incoming returns relationships whose target is the record.
	Incoming
)

// String returns "both", "out" or "in".
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "out"
	case Incoming:
		return "in"
	}
	return "both"
}

// ParseDirection accepts "in", "out", "both" and "".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "both":
		return Both, nil
	case "out":
		return Outgoing, nil
	case "in":
		return Incoming, nil
	}
	return Both, fmt.Errorf("snapshot: unknown direction %q", s)
}

// Store is a local record and relationship store.
type Store interface {
	// PutRecord stores rec, replacing any record with the same id.
	PutRecord(ctx context.Context, rec *rushdb.Record) error

	// GetRecord returns an unbound record or ErrNotFound.
	GetRecord(ctx context.Context, id string) (*rushdb.Record, error)

	// DeleteRecord removes a record and every relationship touching it.
	// Deleting an absent record is not an error.
	DeleteRecord(ctx context.Context, id string) error

	// Records iterates over stored records in id order. A non-empty label
	// restricts the iteration to that label.
	Records(ctx context.Context, label string) iter.Seq2[*rushdb.Record, error]

	// PutRelationship stores a directed relationship.
	PutRelationship(ctx context.Context, rel rushdb.Relationship) error

	// Relationships returns the relationships of id in the given direction.
	Relationships(ctx context.Context, id string, dir Direction) ([]rushdb.Relationship, error)

	// Neighbors returns the sorted ids connected to id in either direction.
	// A non-empty relType restricts the result to that type.
	Neighbors(ctx context.Context, id, relType string) ([]string, error)

	// Labels returns per-label record counts sorted by name.
	Labels(ctx context.Context) ([]rushdb.LabelCount, error)

	Close() error
}

// Snapshot implements Store on a Backend.
type Snapshot struct {
	kv     Backend
	prefix Key
}

// New returns a snapshot storing its keys under prefix in kv.
func New(kv Backend, prefix ...string) *Snapshot {
	return &Snapshot{kv: kv, prefix: Key(prefix)}
}

// NewMemorySnapshot returns a snapshot on a fresh in-memory backend.
func NewMemorySnapshot() *Snapshot {
	return New(NewMemory(), "snap")
}

func checkSegments(segs ...string) error {
	for _, s := range segs {
		if strings.ContainsRune(s, Separator) {
			return fmt.Errorf("%w: %q", ErrInvalidSegment, s)
		}
	}
	return nil
}

func (s *Snapshot) recordKey(id string) Key { return s.prefix.Append("rec", id) }

func (s *Snapshot) labelKey(label, id string) Key { return s.prefix.Append("lbl", label, id) }

func (s *Snapshot) outKey(src, typ, dst string) Key { return s.prefix.Append("rel", src, typ, dst) }

func (s *Snapshot) inKey(dst, typ, src string) Key { return s.prefix.Append("rin", dst, typ, src) }

// edge is the stored form of a relationship's endpoint labels.
type edge struct {
	SourceLabel string `msgpack:"sl,omitempty"`
	TargetLabel string `msgpack:"tl,omitempty"`
}

func (s *Snapshot) PutRecord(ctx context.Context, rec *rushdb.Record) error {
	id := rec.ID()
	if id == "" {
		return ErrMissingID
	}
	label := rec.Label()
	if err := checkSegments(id, label); err != nil {
		return err
	}
	data, err := msgpack.Marshal(rec.Data())
	if err != nil {
		return fmt.Errorf("snapshot: encode record %s: %w", id, err)
	}

	var deletes []Key
	if old, err := s.GetRecord(ctx, id); err == nil && old.Label() != label {
		deletes = append(deletes, s.labelKey(old.Label(), id))
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	sets := []Entry{{Key: s.recordKey(id), Value: data}}
	if label != "" {
		sets = append(sets, Entry{Key: s.labelKey(label, id)})
	}
	return s.kv.Apply(ctx, sets, deletes)
}

func (s *Snapshot) GetRecord(ctx context.Context, id string) (*rushdb.Record, error) {
	if err := checkSegments(id); err != nil {
		return nil, err
	}
	data, err := s.kv.Get(ctx, s.recordKey(id))
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (*rushdb.Record, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("snapshot: decode record: %w", err)
	}
	return rushdb.NewRecord(m), nil
}

func (s *Snapshot) DeleteRecord(ctx context.Context, id string) error {
	rec, err := s.GetRecord(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rels, err := s.Relationships(ctx, id, Both)
	if err != nil {
		return err
	}

	deletes := make([]Key, 0, 2+2*len(rels))
	deletes = append(deletes, s.recordKey(id))
	if label := rec.Label(); label != "" {
		deletes = append(deletes, s.labelKey(label, id))
	}
	for _, r := range rels {
		deletes = append(deletes, s.outKey(r.SourceID, r.Type, r.TargetID), s.inKey(r.TargetID, r.Type, r.SourceID))
	}
	return s.kv.Apply(ctx, nil, deletes)
}

func (s *Snapshot) Records(ctx context.Context, label string) iter.Seq2[*rushdb.Record, error] {
	return func(yield func(*rushdb.Record, error) bool) {
		if label == "" {
			for e, err := range s.kv.Scan(ctx, s.prefix.Append("rec")) {
				if err != nil {
					yield(nil, err)
					return
				}
				rec, err := decodeRecord(e.Value)
				if !yield(rec, err) || err != nil {
					return
				}
			}
			return
		}

		if err := checkSegments(label); err != nil {
			yield(nil, err)
			return
		}
		for e, err := range s.kv.Scan(ctx, s.prefix.Append("lbl", label)) {
			if err != nil {
				yield(nil, err)
				return
			}
			rec, err := s.GetRecord(ctx, e.Key[len(e.Key)-1])
			if errors.Is(err, ErrNotFound) {
				// Stale index entry.
				continue
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (s *Snapshot) PutRelationship(ctx context.Context, rel rushdb.Relationship) error {
	if rel.SourceID == "" || rel.TargetID == "" {
		return ErrMissingID
	}
	if err := checkSegments(rel.SourceID, rel.Type, rel.TargetID); err != nil {
		return err
	}
	data, err := msgpack.Marshal(edge{SourceLabel: rel.SourceLabel, TargetLabel: rel.TargetLabel})
	if err != nil {
		return err
	}
	return s.kv.Apply(ctx, []Entry{
		{Key: s.outKey(rel.SourceID, rel.Type, rel.TargetID), Value: data},
		{Key: s.inKey(rel.TargetID, rel.Type, rel.SourceID)},
	}, nil)
}

func (s *Snapshot) Relationships(ctx context.Context, id string, dir Direction) ([]rushdb.Relationship, error) {
	if err := checkSegments(id); err != nil {
		return nil, err
	}
	var out []rushdb.Relationship

	if dir != Incoming {
		// rel:{src}:{type}:{dst}
		for e, err := range s.kv.Scan(ctx, s.prefix.Append("rel", id)) {
			if err != nil {
				return nil, err
			}
			n := len(e.Key)
			rel, err := decodeEdge(e.Value, e.Key[n-3], e.Key[n-2], e.Key[n-1])
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}

	if dir != Outgoing {
		// rin:{dst}:{type}:{src}
		for e, err := range s.kv.Scan(ctx, s.prefix.Append("rin", id)) {
			if err != nil {
				return nil, err
			}
			n := len(e.Key)
			src, typ, dst := e.Key[n-1], e.Key[n-2], e.Key[n-3]
			if dir == Both && src == dst {
				// Self-loops were already returned as outgoing.
				continue
			}
			data, err := s.kv.Get(ctx, s.outKey(src, typ, dst))
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			rel, err := decodeEdge(data, src, typ, dst)
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}
	return out, nil
}

func decodeEdge(data []byte, src, typ, dst string) (rushdb.Relationship, error) {
	var e edge
	if len(data) > 0 {
		if err := msgpack.Unmarshal(data, &e); err != nil {
			return rushdb.Relationship{}, fmt.Errorf("snapshot: decode relationship: %w", err)
		}
	}
	return rushdb.Relationship{
		SourceID:    src,
		SourceLabel: e.SourceLabel,
		TargetID:    dst,
		TargetLabel: e.TargetLabel,
		Type:        typ,
	}, nil
}

func (s *Snapshot) Neighbors(ctx context.Context, id, relType string) ([]string, error) {
	rels, err := s.Relationships(ctx, id, Both)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range rels {
		if relType != "" && r.Type != relType {
			continue
		}
		other := r.TargetID
		if other == id {
			other = r.SourceID
		}
		out = append(out, other)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *Snapshot) Labels(ctx context.Context) ([]rushdb.LabelCount, error) {
	var out []rushdb.LabelCount
	// Keys sharing lbl:{label}: are contiguous in scan order.
	for e, err := range s.kv.Scan(ctx, s.prefix.Append("lbl")) {
		if err != nil {
			return nil, err
		}
		label := e.Key[len(e.Key)-2]
		if n := len(out); n > 0 && out[n-1].Name == label {
			out[n-1].Count++
			continue
		}
		out = append(out, rushdb.LabelCount{Name: label, Count: 1})
	}
	slices.SortFunc(out, func(a, b rushdb.LabelCount) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Close closes the backend.
func (s *Snapshot) Close() error {
	return s.kv.Close()
}

var _ Store = (*Snapshot)(nil)
