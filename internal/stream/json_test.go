package stream_test

import (
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/raphaelgruber/textgraph/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(events []stream.Event) []stream.Kind {
	out := make([]stream.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func objects(events []stream.Event) []any {
	var out []any
	for _, e := range events {
		if e.Kind == stream.KindObject {
			out = append(out, e.Object)
		}
	}
	return out
}

func TestJSONDecoder(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      []any
	}{
		{
			name:      "single object in one fragment",
			fragments: []string{`{"name": "Alice"}`},
			want:      []any{map[string]any{"name": "Alice"}},
		},
		{
			name:      "object split across fragments",
			fragments: []string{`{"na`, `me": "Al`, `ice"}`},
			want:      []any{map[string]any{"name": "Alice"}},
		},
		{
			name:      "several objects with noise in between",
			fragments: []string{`[{"a": 1}, `, `{"b": 2}`, `, {"c": 3}]`},
			want: []any{
				map[string]any{"a": float64(1)},
				map[string]any{"b": float64(2)},
				map[string]any{"c": float64(3)},
			},
		},
		{
			name:      "brace inside string recovered from remainder",
			fragments: []string{`{"text": "a}`, `"}`},
			want:      []any{map[string]any{"text": "a}"}},
		},
		{
			name:      "trailing remainder parsed at end",
			fragments: []string{`  42  `},
			want:      []any{float64(42)},
		},
		{
			name:      "unparsable remainder dropped",
			fragments: []string{`{"a": 1} {"b": `},
			want:      []any{map[string]any{"a": float64(1)}},
		},
		{
			name:      "no fragments",
			fragments: nil,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := stream.NewJSONDecoder(nil)
			events := slices.Collect(dec.Decode(stream.Fragments(tt.fragments...)))

			require.NotEmpty(t, events)
			assert.Equal(t, stream.KindDone, events[len(events)-1].Kind, "done should be last")
			assert.Equal(t, tt.want, objects(events))

			var done int
			for _, e := range events {
				if e.Kind == stream.KindDone {
					done++
				}
			}
			assert.Equal(t, 1, done, "exactly one done event")
		})
	}
}

func TestJSONDecoderNestedObjectIsShallow(t *testing.T) {
	dec := stream.NewJSONDecoder(nil)
	events := slices.Collect(dec.Decode(stream.Fragments(`{"a": {"b": 1}}`)))

	// Only the inner object is recognised; the closing brace left over
	// cannot be parsed and is dropped.
	assert.Equal(t, []any{map[string]any{"b": float64(1)}}, objects(events))
	assert.Equal(t, stream.KindDone, events[len(events)-1].Kind)
}

func TestJSONDecoderRefusal(t *testing.T) {
	dec := stream.NewJSONDecoder(nil)
	events := slices.Collect(dec.Decode(stream.Fragments(
		"I'm sorry, I can't help with that.",
		`{"name": "Alice"}`,
	)))

	require.Len(t, events, 1)
	assert.Equal(t, stream.KindError, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, stream.ErrRefusal)
}

func TestJSONDecoderCustomRefusal(t *testing.T) {
	dec := stream.NewJSONDecoder(nil)
	dec.Refusal = stream.PrefixRefusal("Désolé")

	events := slices.Collect(dec.Decode(stream.Fragments("Désolé, non.")))
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, stream.ErrRefusal)

	events = slices.Collect(dec.Decode(stream.Fragments("I'm sorry")))
	assert.Equal(t, []stream.Kind{stream.KindDone}, kinds(events), "default phrase no longer matches")
}

func TestJSONDecoderSourceError(t *testing.T) {
	boom := errors.New("connection reset")
	src := iter.Seq2[stream.Chunk, error](func(yield func(stream.Chunk, error) bool) {
		if !yield(stream.Chunk{Text: `{"a": 1}`}, nil) {
			return
		}
		yield(stream.Chunk{}, boom)
	})

	events := slices.Collect(stream.NewJSONDecoder(nil).Decode(src))
	assert.Equal(t, []stream.Kind{stream.KindObject, stream.KindError}, kinds(events))
	assert.ErrorIs(t, events[1].Err, boom)
}

func TestJSONDecoderCancelled(t *testing.T) {
	var sig stream.CancelSignal
	sig.Cancel()

	events := slices.Collect(stream.NewJSONDecoder(&sig).Decode(stream.Fragments(`{"a": 1}`)))
	assert.Equal(t, []stream.Kind{stream.KindCancelled}, kinds(events))
}

func TestJSONDecoderStopsWhenConsumerStops(t *testing.T) {
	dec := stream.NewJSONDecoder(nil)
	var got int
	for e := range dec.Decode(stream.Fragments(`{"a": 1}{"b": 2}{"c": 3}`)) {
		require.Equal(t, stream.KindObject, e.Kind)
		got++
		if got == 2 {
			break
		}
	}
	assert.Equal(t, 2, got)
}

type firstCharScanner struct{}

func (firstCharScanner) Next(buf string) (int, int, bool) {
	for i := 0; i < len(buf); i++ {
		if buf[i] == '{' {
			for j := i; j < len(buf); j++ {
				if buf[j] == '}' {
					return i, j + 1, true
				}
			}
		}
	}
	return 0, 0, false
}

func TestJSONDecoderCustomScanner(t *testing.T) {
	dec := &stream.JSONDecoder{Scanner: firstCharScanner{}}
	events := slices.Collect(dec.Decode(stream.Fragments(`x {"k": "v"} y`)))
	assert.Equal(t, []any{map[string]any{"k": "v"}}, objects(events[:len(events)-1]))
}
