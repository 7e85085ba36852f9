// ABOUTME: Persistent monitor state in Badger: cursors and heartbeat times.
// ABOUTME: Cursors mark the newest log timestamp already inspected.
package monitor

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
)

// Scan type names used for cursors and heartbeat gating. These match
// the fleet file-name conventions where one exists.
const (
	ScanHealthLogs  = "server_health_logs"
	ScanGeneralLogs = "general_logs"
	ScanUpChecks    = "up_checks"
)

// State persists monitor position between runs so restarts do not
// replay alerts that were already sent.
type State struct {
	db *badger.DB
}

// OpenState opens the Badger store under the given directory.
func OpenState(dir string) (*State, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return &State{db: db}, nil
}

// Close closes the underlying store.
func (s *State) Close() error {
	return s.db.Close()
}

// Cursor returns the stored cursor for a scan type, or the zero time.
func (s *State) Cursor(scanType string) (time.Time, error) {
	return s.getTime("cursor:" + scanType)
}

// SetCursor stores the cursor for a scan type.
func (s *State) SetCursor(scanType string, t time.Time) error {
	return s.setTime("cursor:"+scanType, t)
}

// LastHeartbeat returns when a heartbeat of the given type last went
// out, or the zero time.
func (s *State) LastHeartbeat(scanType string) (time.Time, error) {
	return s.getTime("heartbeat:" + scanType)
}

// SetLastHeartbeat stores the heartbeat send time for a scan type.
func (s *State) SetLastHeartbeat(scanType string, t time.Time) error {
	return s.setTime("heartbeat:"+scanType, t)
}

// ResetCursors moves every scan cursor back to zero so the next scan
// replays all log history.
func (s *State) ResetCursors() error {
	for _, scanType := range []string{ScanHealthLogs, ScanGeneralLogs} {
		if err := s.SetCursor(scanType, time.Time{}); err != nil {
			return err
		}
	}
	return nil
}

// MoveCursorsToEnd advances every scan cursor to now, skipping any
// log entries already on disk.
func (s *State) MoveCursorsToEnd(now time.Time) error {
	for _, scanType := range []string{ScanHealthLogs, ScanGeneralLogs} {
		if err := s.SetCursor(scanType, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) getTime(key string) (time.Time, error) {
	var out time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return nil
			}
			t, err := time.Parse(time.RFC3339Nano, string(val))
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			out = t
			return nil
		})
	})
	if err != nil {
		return time.Time{}, err
	}
	return out, nil
}

func (s *State) setTime(key string, t time.Time) error {
	var val []byte
	if !t.IsZero() {
		val = []byte(t.Format(time.RFC3339Nano))
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}
