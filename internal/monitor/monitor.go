// ABOUTME: Monitor daemon: periodic scans, heartbeat gating, notifications.
// ABOUTME: Watches the inbox with fsnotify to scan new logs between ticks.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harperreed/sentinel/internal/config"
	"github.com/harperreed/sentinel/internal/notify"
	"github.com/harperreed/sentinel/internal/ship"
)

// Scan cadences, matching the deployment this replaces.
const (
	healthInterval  = time.Hour
	generalInterval = time.Minute
	upCheckInterval = 5 * time.Minute
	watchDebounce   = 2 * time.Second
)

// Monitor ties the scans, persistent state, and notifier together.
type Monitor struct {
	cfg      *config.Config
	state    *State
	notifier notify.Notifier

	// HTTPClient is used for up checks; nil means a default client.
	HTTPClient *http.Client

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Monitor.
func New(cfg *config.Config, state *State, notifier notify.Notifier) *Monitor {
	return &Monitor{
		cfg:      cfg,
		state:    state,
		notifier: notifier,
		now:      time.Now,
	}
}

// deliver sends alerts unconditionally and the heartbeat only when the
// scan type's wait period has elapsed since its last heartbeat.
func (m *Monitor) deliver(ctx context.Context, scanType string, res ScanResult) error {
	now := m.now()

	if res.Heartbeat != "" {
		last, err := m.state.LastHeartbeat(scanType)
		if err != nil {
			return err
		}
		wait := time.Duration(m.cfg.HeartbeatWait(scanType)) * time.Second
		if now.Sub(last) > wait {
			if err := m.notifier.Heartbeat(ctx, res.Heartbeat); err != nil {
				return fmt.Errorf("send heartbeat: %w", err)
			}
			if err := m.state.SetLastHeartbeat(scanType, now); err != nil {
				return err
			}
		}
	}

	if res.Alerts != "" {
		if err := m.notifier.Alert(ctx, res.Alerts); err != nil {
			return fmt.Errorf("send alert: %w", err)
		}
	}
	return nil
}

// RunHealthScan performs one health scan round and delivers its output.
func (m *Monitor) RunHealthScan(ctx context.Context) error {
	cursor, err := m.state.Cursor(ScanHealthLogs)
	if err != nil {
		return err
	}

	res, err := ScanHealth(m.cfg.InboxDir, m.cfg.GetThresholds(), cursor, m.now())
	if err != nil {
		return err
	}

	if res.NewCursor.After(cursor) {
		if err := m.state.SetCursor(ScanHealthLogs, res.NewCursor); err != nil {
			return err
		}
	}
	return m.deliver(ctx, ScanHealthLogs, res)
}

// RunGeneralScan performs one general-log scan round and delivers its output.
func (m *Monitor) RunGeneralScan(ctx context.Context) error {
	cursor, err := m.state.Cursor(ScanGeneralLogs)
	if err != nil {
		return err
	}

	res, err := ScanGeneral(m.cfg.InboxDir, DefaultAlarmWords, cursor)
	if err != nil {
		return err
	}

	if res.NewCursor.After(cursor) {
		if err := m.state.SetCursor(ScanGeneralLogs, res.NewCursor); err != nil {
			return err
		}
	}
	return m.deliver(ctx, ScanGeneralLogs, res)
}

// RunUpChecks performs one round of URL liveness checks.
func (m *Monitor) RunUpChecks(ctx context.Context) error {
	if len(m.cfg.Links) == 0 {
		return nil
	}
	res := CheckLinks(ctx, m.cfg.Links, m.HTTPClient)
	return m.deliver(ctx, ScanUpChecks, ScanResult{
		Heartbeat: res.Heartbeat,
		Alerts:    res.Alerts,
	})
}

// Run drives the scan loop until the context is cancelled. Scan errors
// are reported to OnError and the loop keeps going; a daemon that dies
// on one bad file defeats its purpose.
func (m *Monitor) Run(ctx context.Context, onError func(err error)) error {
	report := func(err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(m.cfg.InboxDir); err != nil {
		return fmt.Errorf("watch inbox %s: %w", m.cfg.InboxDir, err)
	}

	healthTick := time.NewTicker(healthInterval)
	defer healthTick.Stop()
	generalTick := time.NewTicker(generalInterval)
	defer generalTick.Stop()
	upTick := time.NewTicker(upCheckInterval)
	defer upTick.Stop()

	// Debounce timer for filesystem events; shipped files often arrive
	// as several writes in quick succession.
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	// First rounds happen at startup rather than a full interval later.
	report(m.RunHealthScan(ctx))
	report(m.RunGeneralScan(ctx))
	report(m.RunUpChecks(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-healthTick.C:
			report(m.RunHealthScan(ctx))
		case <-generalTick.C:
			report(m.RunGeneralScan(ctx))
		case <-upTick.C:
			report(m.RunUpChecks(ctx))
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if ship.ConventionFor(ev.Name) == "" {
				continue
			}
			debounce.Reset(watchDebounce)
		case <-debounce.C:
			report(m.RunGeneralScan(ctx))
			report(m.RunHealthScan(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			report(fmt.Errorf("inbox watcher: %w", err))
		}
	}
}
