package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest kinds.
const (
	KindReply       = "reply"
	KindTime        = "time"
	KindPlaceholder = "placeholder"
)

const manifestExt = ".yaml"

// Manifest is the on-disk description of one skill, stored as
// <skills dir>/<intent>.yaml.
type Manifest struct {
	Intent string `yaml:"intent,omitempty"`
	Kind   string `yaml:"kind"`
	Reply  string `yaml:"reply,omitempty"`
	Layout string `yaml:"layout,omitempty"`
}

// ParseManifest decodes a manifest, rejecting unknown keys.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return m, nil
}

// handler turns a manifest into a callable. A nil handler with a nil error
// means the manifest names no entry point this build understands.
func (m Manifest) handler(intent string) (Handler, error) {
	if m.Intent != "" && m.Intent != intent {
		return nil, fmt.Errorf("%w: declares intent %q in file for %q", ErrManifest, m.Intent, intent)
	}
	switch strings.ToLower(strings.TrimSpace(m.Kind)) {
	case KindReply:
		if m.Reply == "" {
			return nil, fmt.Errorf("%w: reply kind without reply text", ErrManifest)
		}
		r, err := NewReply(intent, m.Reply)
		if err != nil {
			return nil, fmt.Errorf("%w: reply template: %v", ErrManifest, err)
		}
		return r, nil
	case KindTime:
		return Clock{Intent: intent, Layout: m.Layout}, nil
	case KindPlaceholder:
		return Placeholder{Intent: intent}, nil
	default:
		return nil, nil
	}
}

// writePlaceholderManifest persists a data-only placeholder description.
func writePlaceholderManifest(dir, intent string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	body, err := yaml.Marshal(Manifest{Intent: intent, Kind: KindPlaceholder})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, intent+manifestExt)
	header := []byte("# auto-registered for an unhandled intent; change kind to implement it\n")
	return path, os.WriteFile(path, append(header, body...), 0o644)
}
