// ABOUTME: Ordered JSON timeseries log files keyed by timestamp.
// ABOUTME: Handles load/save, appending reports, and age-based pruning.
package logstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// StampFormat is the canonical key format written for new entries.
// It matches the microsecond ISO 8601 form the log consumers expect.
const StampFormat = "2006-01-02T15:04:05.000000"

// Entry is a single timestamped report in a log file.
type Entry struct {
	Stamp  string         // raw key as it appears in the file
	At     time.Time      // parsed form of Stamp
	Fields map[string]any // flat report object
}

// Log is the ordered contents of one timeseries log file.
// Order matches the file; appends go at the end.
type Log struct {
	Entries []Entry
}

// ParseStamp parses a log key as either epoch seconds (possibly
// fractional) or an ISO 8601 timestamp. Both forms occur in shipped logs.
func ParseStamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * 1e9)
		return time.Unix(sec, nsec), nil
	}
	formats := []string{
		StampFormat,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// EnsureFile creates the log file holding an empty object if it does not
// already exist.
func EnsureFile(path string) error {
	if path == "" {
		return fmt.Errorf("log file path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	return os.WriteFile(path, []byte("{}"), 0600)
}

// Load reads a log file, creating it first if needed. An empty file
// reads as an empty log. Entry order is preserved.
func Load(path string) (*Log, error) {
	if err := EnsureFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses raw log bytes into an ordered Log. Keys that do not
// parse as timestamps fail the whole decode; the file is not a log.
func Decode(data []byte) (*Log, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Log{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decode log: expected object, got %v", tok)
	}

	log := &Log{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode log key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode log: non-string key %v", keyTok)
		}
		at, err := ParseStamp(key)
		if err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", key, err)
		}
		log.Entries = append(log.Entries, Entry{Stamp: key, At: at, Fields: fields})
	}
	return log, nil
}

// Encode renders the log as indented JSON, keys in entry order.
func (l *Log) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range l.Entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		key, err := json.Marshal(e.Stamp)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")
		val, err := json.MarshalIndent(e.Fields, "    ", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode entry %s: %w", e.Stamp, err)
		}
		buf.Write(val)
	}
	if len(l.Entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// Save writes the log back to disk.
func Save(l *Log, path string) error {
	if err := EnsureFile(path); err != nil {
		return err
	}
	data, err := l.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Append adds a report stamped with the given time. A duplicate stamp
// replaces the existing entry, matching map-update semantics of the
// shipped file format.
func (l *Log) Append(at time.Time, fields map[string]any) {
	stamp := at.Format(StampFormat)
	for i := range l.Entries {
		if l.Entries[i].Stamp == stamp {
			l.Entries[i].Fields = fields
			l.Entries[i].At = at
			return
		}
	}
	l.Entries = append(l.Entries, Entry{Stamp: stamp, At: at, Fields: fields})
}

// Prune drops entries older than the given number of days, returning the
// removed entries in their original order. days <= 0 clears the log.
func (l *Log) Prune(days int, now time.Time) []Entry {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	var kept, removed []Entry
	for _, e := range l.Entries {
		if e.At.Before(cutoff) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	l.Entries = kept
	return removed
}

// Since returns entries strictly newer than the given cutoff.
func (l *Log) Since(cutoff time.Time) []Entry {
	var out []Entry
	for _, e := range l.Entries {
		if e.At.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the most recent entry by timestamp, or false when the
// log is empty. Entries are usually already in time order, but shipped
// files mix stamp formats, so this sorts rather than trusting position.
func (l *Log) Latest() (Entry, bool) {
	if len(l.Entries) == 0 {
		return Entry{}, false
	}
	idx := make([]int, len(l.Entries))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return l.Entries[idx[a]].At.After(l.Entries[idx[b]].At)
	})
	return l.Entries[idx[0]], true
}

// AppendReport loads the log at path, appends the report stamped now,
// and saves it back. This is the write path every producer goes through.
func AppendReport(path string, fields map[string]any) error {
	log, err := Load(path)
	if err != nil {
		return err
	}
	log.Append(time.Now(), fields)
	return Save(log, path)
}

// ParseReport turns producer input into a report object. A JSON object
// string is used as-is; any other string becomes {"general": input}.
func ParseReport(input string) (map[string]any, error) {
	if input == "" {
		return nil, fmt.Errorf("empty report")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(input), &fields); err == nil {
		return fields, nil
	}
	return map[string]any{"general": input}, nil
}
