// Package snapshot reads and writes farm snapshots.
//
// A snapshot is a JSON object mapping storage keys to their values. It is
// the shape of a browser localStorage dump, so values may appear either as
// JSON or as strings holding JSON; both are accepted and normalized to
// plain JSON.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Snapshot maps storage keys to JSON values.
type Snapshot map[string]json.RawMessage

// Read decodes a snapshot from r.
//
// When keys are given, only those keys are kept; anything else in the
// document is ignored. String values holding valid JSON are unwrapped, so
// {"k":"[1,2]"} and {"k":[1,2]} read the same.
//
// Returns an error if the document is not a JSON object.
func Read(r io.Reader, keys ...string) (Snapshot, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to decode snapshot: document is not an object")
	}

	var wanted map[string]bool
	if len(keys) > 0 {
		wanted = make(map[string]bool, len(keys))
		for _, k := range keys {
			wanted[k] = true
		}
	}

	out := make(Snapshot, len(doc))
	for k, raw := range doc {
		if wanted != nil && !wanted[k] {
			continue
		}
		out[k] = unwrap(raw)
	}
	return out, nil
}

// unwrap returns the JSON held by a string value, or raw itself.
func unwrap(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return trimmed
	}
	if inner := []byte(s); json.Valid(inner) {
		return bytes.TrimSpace(inner)
	}
	return trimmed
}

// Decode unmarshals the value stored under key into a T. It reports false
// when the snapshot has no such key.
func Decode[T any](s Snapshot, key string) (T, bool, error) {
	var out T
	raw, ok := s[key]
	if !ok {
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, true, fmt.Errorf("failed to decode snapshot key %q: %w", key, err)
	}
	return out, true, nil
}

// Build serializes values into a snapshot.
func Build(values map[string]any) (Snapshot, error) {
	out := make(Snapshot, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot key %q: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}

// Write encodes s to w as indented JSON with keys in sorted order,
// followed by a newline.
func Write(w io.Writer, s Snapshot) error {
	if s == nil {
		s = Snapshot{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
