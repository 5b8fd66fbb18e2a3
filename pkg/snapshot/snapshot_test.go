package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
	"github.com/haivivi/rushdb-go/pkg/snapshot"
)

func stores(t *testing.T) map[string]*snapshot.Snapshot {
	t.Helper()
	out := map[string]*snapshot.Snapshot{}
	for name, b := range backends(t) {
		out[name] = snapshot.New(b, "test", "s")
	}
	return out
}

func record(id, label string, fields map[string]any) *rushdb.Record {
	data := map[string]any{rushdb.FieldRecordID: id, rushdb.FieldLabel: label}
	for k, v := range fields {
		data[k] = v
	}
	return rushdb.NewRecord(data)
}

func TestPutGetRecord(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := record("u1", "USER", map[string]any{
				"name":   "Ann",
				"age":    float64(31),
				"active": true,
				"tags":   []any{"a", "b"},
				"__proptypes": map[string]any{
					"name": "string",
				},
			})
			require.NoError(t, s.PutRecord(ctx, rec))

			got, err := s.GetRecord(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, rec.Data(), got.Data())
			assert.Equal(t, "string", got.PropTypes()["name"])

			_, err = s.GetRecord(ctx, "missing")
			assert.ErrorIs(t, err, snapshot.ErrNotFound)
		})
	}
}

func TestPutRecordValidation(t *testing.T) {
	ctx := context.Background()
	s := snapshot.NewMemorySnapshot()
	defer s.Close()

	assert.ErrorIs(t, s.PutRecord(ctx, rushdb.NewRecord(map[string]any{"name": "x"})), snapshot.ErrMissingID, "no id")
	assert.ErrorIs(t, s.PutRecord(ctx, record("a:b", "USER", nil)), snapshot.ErrInvalidSegment, "id with separator")
	assert.ErrorIs(t, s.PutRecord(ctx, record("a", "US:ER", nil)), snapshot.ErrInvalidSegment, "label with separator")
}

func collect(t *testing.T, s snapshot.Store, label string) []string {
	t.Helper()
	var ids []string
	for rec, err := range s.Records(context.Background(), label) {
		require.NoError(t, err, "Records(%q)", label)
		ids = append(ids, rec.ID())
	}
	return ids
}

func TestRecordsAndLabels(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []*rushdb.Record{
				record("u2", "USER", nil),
				record("u1", "USER", nil),
				record("b1", "BOOK", nil),
				record("x1", "USER1", nil),
				record("n1", "", nil),
			} {
				require.NoError(t, s.PutRecord(ctx, r))
			}

			assert.Equal(t, []string{"b1", "n1", "u1", "u2", "x1"}, collect(t, s, ""))
			assert.Equal(t, []string{"u1", "u2"}, collect(t, s, "USER"))

			labels, err := s.Labels(ctx)
			require.NoError(t, err)
			assert.Equal(t, []rushdb.LabelCount{{Name: "BOOK", Count: 1}, {Name: "USER", Count: 2}, {Name: "USER1", Count: 1}}, labels)

			// Relabelling moves the index entry.
			require.NoError(t, s.PutRecord(ctx, record("u2", "BOOK", nil)))
			assert.Equal(t, []string{"u1"}, collect(t, s, "USER"))
			assert.Equal(t, []string{"b1", "u2"}, collect(t, s, "BOOK"))
		})
	}
}

func rel(src, typ, dst string) rushdb.Relationship {
	return rushdb.Relationship{SourceID: src, SourceLabel: "USER", TargetID: dst, TargetLabel: "BOOK", Type: typ}
}

func TestRelationships(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []rushdb.Relationship{
				rel("u1", "READ", "b1"),
				rel("u1", "WROTE", "b2"),
				rel("u2", "READ", "b1"),
				rel("u1", "SELF", "u1"),
			} {
				require.NoError(t, s.PutRelationship(ctx, r))
			}

			out, err := s.Relationships(ctx, "u1", snapshot.Outgoing)
			require.NoError(t, err)
			require.Len(t, out, 3)
			assert.Equal(t, rel("u1", "READ", "b1"), out[0])

			in, err := s.Relationships(ctx, "b1", snapshot.Incoming)
			require.NoError(t, err)
			assert.Equal(t, []rushdb.Relationship{rel("u1", "READ", "b1"), rel("u2", "READ", "b1")}, in)

			both, err := s.Relationships(ctx, "u1", snapshot.Both)
			require.NoError(t, err)
			assert.Len(t, both, 3, "the self-loop is listed once")

			nb, err := s.Neighbors(ctx, "b1", "")
			require.NoError(t, err)
			assert.Equal(t, []string{"u1", "u2"}, nb)
			nb, err = s.Neighbors(ctx, "u1", "WROTE")
			require.NoError(t, err)
			assert.Equal(t, []string{"b2"}, nb)

			err = s.PutRelationship(ctx, rushdb.Relationship{SourceID: "u1", TargetID: "b1", Type: "A:B"})
			assert.ErrorIs(t, err, snapshot.ErrInvalidSegment, "type with separator")
			err = s.PutRelationship(ctx, rushdb.Relationship{SourceID: "u1", Type: "READ"})
			assert.ErrorIs(t, err, snapshot.ErrMissingID, "missing target")
		})
	}
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []*rushdb.Record{record("u1", "USER", nil), record("b1", "BOOK", nil)} {
				require.NoError(t, s.PutRecord(ctx, r))
			}
			require.NoError(t, s.PutRelationship(ctx, rel("u1", "READ", "b1")))

			require.NoError(t, s.DeleteRecord(ctx, "u1"))
			_, err := s.GetRecord(ctx, "u1")
			assert.ErrorIs(t, err, snapshot.ErrNotFound)
			assert.Empty(t, collect(t, s, "USER"), "label index not cleaned")

			in, err := s.Relationships(ctx, "b1", snapshot.Both)
			require.NoError(t, err)
			assert.Empty(t, in, "relationships not cleaned")

			assert.NoError(t, s.DeleteRecord(ctx, "u1"))
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want snapshot.Direction
	}{
		{"", snapshot.Both},
		{"both", snapshot.Both},
		{"in", snapshot.Incoming},
		{"out", snapshot.Outgoing},
	} {
		got, err := snapshot.ParseDirection(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		if tt.in != "" {
			assert.Equal(t, tt.in, got.String())
		}
	}
	_, err := snapshot.ParseDirection("sideways")
	assert.Error(t, err)
}
