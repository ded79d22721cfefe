package prompts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		SystemFile: {Data: []byte("greet: |\n  You are {role}.\n")},
		UserFile: {Data: []byte(
			"greet: \"Hello {name}, you are {age}. {{literal}}\"\n" +
				"broken: \"oops {name\"\n")},
		"schemas/node_schema.json": {Data: []byte(`{"type": "object"}`)},
		"schemas/bad.json":         {Data: []byte(`{"type": `)},
	}
}

func TestStoreRender(t *testing.T) {
	s, err := NewStore(testFS())
	require.NoError(t, err)

	t.Run("system template is verbatim", func(t *testing.T) {
		got, err := s.Render(KindSystem, "greet", map[string]string{"role": "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "You are {role}.\n", got)
	})

	t.Run("user template substitutes and defaults", func(t *testing.T) {
		got, err := s.Render(KindUser, "greet", map[string]string{"name": "Alice"})
		require.NoError(t, err)
		assert.Equal(t, "Hello Alice, you are N/A. {literal}", got)
	})

	t.Run("missing system template", func(t *testing.T) {
		_, err := s.Render(KindSystem, "absent", nil)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("missing user template", func(t *testing.T) {
		_, err := s.Render(KindUser, "absent", nil)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.Render(Kind("assistant"), "greet", nil)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("malformed template", func(t *testing.T) {
		_, err := s.Render(KindUser, "broken", map[string]string{"name": "x"})
		assert.Error(t, err)
	})
}

func TestStoreReload(t *testing.T) {
	fsys := testFS()
	s, err := NewStore(fsys)
	require.NoError(t, err)

	fsys[SystemFile] = &fstest.MapFile{Data: []byte("greet: Updated\nextra: New\n")}
	_, err = s.Render(KindSystem, "extra", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound, "changes are invisible before reload")

	require.NoError(t, s.Reload())
	got, err := s.Render(KindSystem, "extra", nil)
	require.NoError(t, err)
	assert.Equal(t, "New", got)
	assert.Equal(t, []string{"extra", "greet"}, s.Names(KindSystem))
}

func TestStoreMissingFiles(t *testing.T) {
	s, err := NewStore(fstest.MapFS{})
	require.NoError(t, err, "missing files load as empty sets")
	assert.Empty(t, s.Names(KindUser))
}

func TestStoreInvalidYAML(t *testing.T) {
	_, err := NewStore(fstest.MapFS{SystemFile: {Data: []byte("a: [unclosed")}})
	assert.Error(t, err)
}

func TestLoadSchema(t *testing.T) {
	s, err := NewStore(testFS())
	require.NoError(t, err)

	got, err := s.LoadSchema("node_schema")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "object"}`, got)

	_, err = s.LoadSchema("missing")
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = s.LoadSchema("bad")
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	s, err := NewStore(Defaults())
	require.NoError(t, err)

	for _, name := range []string{"node_extraction", "relationship_extraction"} {
		_, err := s.Render(KindSystem, name, nil)
		require.NoError(t, err, "system %s", name)

		got, err := s.Render(KindUser, name, map[string]string{"text": "Alice met Bob.", "schema": "{}"})
		require.NoError(t, err, "user %s", name)
		assert.Contains(t, got, "Alice met Bob.")
	}

	for _, name := range []string{"node_schema", "relationship_schema"} {
		_, err := s.LoadSchema(name)
		require.NoError(t, err, "schema %s", name)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		subs    map[string]string
		want    string
		wantErr bool
	}{
		{"no placeholders", "plain", nil, "plain", false},
		{"substitution", "{a}-{b}", map[string]string{"a": "1", "b": "2"}, "1-2", false},
		{"missing", "{a}", nil, "N/A", false},
		{"escaped braces", "{{x}}", nil, "{x}", false},
		{"value with braces is not re-expanded", "{a}", map[string]string{"a": "{b}"}, "{b}", false},
		{"empty name", "{}", nil, "N/A", false},
		{"unmatched open", "{a", nil, "", true},
		{"lone close", "a}", nil, "", true},
		{"nested open", "{a{b}", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.tmpl, tt.subs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
