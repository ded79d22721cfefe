// Package prompts loads prompt templates and extraction schemas from a
// filesystem and renders them with named substitutions.
package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind selects the system or user template set.
type Kind string

// Template kinds.
const (
	KindSystem Kind = "system"
	KindUser   Kind = "user"
)

// File layout inside a prompt filesystem.
const (
	SystemFile = "system_prompts.yaml"
	UserFile   = "user_prompts.yaml"
	SchemaDir  = "schemas"
)

// MissingValue replaces user template variables that have no substitution.
const MissingValue = "N/A"

var (
	ErrTemplateNotFound = errors.New("prompt template not found")
	ErrSchemaNotFound   = errors.New("schema not found")
	ErrUnknownKind      = errors.New("unknown prompt kind")
)

//go:embed defaults
var defaultFS embed.FS

// Defaults returns the built-in prompt filesystem.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store holds system and user templates loaded from a filesystem.
// It is safe for concurrent use; Reload swaps the template sets atomically.
type Store struct {
	fsys fs.FS

	mu     sync.RWMutex
	system map[string]string
	user   map[string]string
}

// NewStore loads templates from fsys.
func NewStore(fsys fs.FS) (*Store, error) {
	s := &Store{fsys: fsys}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads both template files. A missing file yields an empty set.
func (s *Store) Reload() error {
	system, err := loadTemplates(s.fsys, SystemFile)
	if err != nil {
		return err
	}
	user, err := loadTemplates(s.fsys, UserFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.system, s.user = system, user
	s.mu.Unlock()

	slog.Debug("loaded prompts", "system", len(system), "user", len(user))
	return nil
}

func loadTemplates(fsys fs.FS, name string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("prompt file not found", "file", name)
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return out, nil
}

// Render returns the named template. User templates have {name}
// placeholders substituted, with MissingValue for unknown names; system
// templates are returned verbatim.
func (s *Store) Render(kind Kind, name string, subs map[string]string) (string, error) {
	s.mu.RLock()
	var set map[string]string
	switch kind {
	case KindSystem:
		set = s.system
	case KindUser:
		set = s.user
	}
	tmpl, ok := set[name]
	s.mu.RUnlock()

	if set == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, kind, name)
	}
	if kind == KindSystem {
		return tmpl, nil
	}

	out, err := Format(tmpl, subs)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Names lists the template names of one kind in sorted order.
func (s *Store) Names(kind Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var set map[string]string
	if kind == KindSystem {
		set = s.system
	} else {
		set = s.user
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// LoadSchema returns schemas/<name>.json as a string after checking it is
// valid JSON.
func (s *Store) LoadSchema(name string) (string, error) {
	p := path.Join(SchemaDir, name+".json")
	data, err := fs.ReadFile(s.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("read schema %s: %w", name, err)
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("schema %s: invalid JSON", name)
	}
	return strings.TrimSpace(string(data)), nil
}
