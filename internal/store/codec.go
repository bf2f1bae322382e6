package store

import (
	"encoding/json"
	"fmt"
)

// encodeEntry serializes an entry for list-based drivers. JSON keeps author and
// content in separate fields, so no content can collide with a delimiter.
func encodeEntry(e Entry) (string, error) {
	if e.Author == "" {
		return "", fmt.Errorf("%w: empty author", ErrInvalidEntry)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return string(b), nil
}

func decodeEntry(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return e, nil
}

func decodeEntries(raw []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
