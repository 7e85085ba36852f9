// ABOUTME: Ships local timeseries logs to the monitor host.
// ABOUTME: Names files <convention>.<hostname>.json; rsync, scp, or charm.
package ship

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"sort"
)

// Conventions maps the fleet naming convention to which local log it
// carries. The monitor keys its scans off these name prefixes.
const (
	HealthConvention  = "health_logs"
	GeneralConvention = "general_logs"
)

// Transport sends one local log file to the fleet inbox under its
// fleet name.
type Transport interface {
	Ship(ctx context.Context, localPath, name string) error
}

// Shipper ships every configured log over a transport. Failures are
// reported through OnError and do not stop the remaining logs.
type Shipper struct {
	Transport Transport
	// Hostname defaults to os.Hostname.
	Hostname string
	// OnError is the per-log failure sink.
	OnError func(name string, err error)
	// OnShipped is called after each successful ship.
	OnShipped func(localPath, name string)
}

// FileName builds the fleet name for a convention on the given host.
func FileName(convention, hostname string) string {
	return fmt.Sprintf("%s.%s.json", convention, hostname)
}

// Push ships the given convention→path map. Conventions are shipped in
// sorted order so runs are deterministic. Returns how many logs shipped
// cleanly.
func (s *Shipper) Push(ctx context.Context, logs map[string]string) int {
	hostname := s.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	conventions := make([]string, 0, len(logs))
	for c := range logs {
		conventions = append(conventions, c)
	}
	sort.Strings(conventions)

	shipped := 0
	for _, convention := range conventions {
		localPath := logs[convention]
		name := FileName(convention, hostname)
		if err := s.Transport.Ship(ctx, localPath, name); err != nil {
			if s.OnError != nil {
				s.OnError(name, err)
			}
			continue
		}
		shipped++
		if s.OnShipped != nil {
			s.OnShipped(localPath, name)
		}
	}
	return shipped
}

// RunCommand executes a shipping command, folding stderr into the error.
type RunCommand func(ctx context.Context, name string, args ...string) error

func defaultRun(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// RsyncTransport ships over rsync with an ssh identity file.
type RsyncTransport struct {
	KeyPath    string
	RemotePath string // user@host:path_to_directory
	Run        RunCommand
}

func (t *RsyncTransport) Ship(ctx context.Context, localPath, name string) error {
	run := t.Run
	if run == nil {
		run = defaultRun
	}
	dest := t.RemotePath + "/" + name
	return run(ctx, "rsync", "-avz", "-e", fmt.Sprintf("ssh -i %s", t.KeyPath), localPath, dest)
}

// ScpTransport ships over scp with an ssh identity file.
type ScpTransport struct {
	KeyPath    string
	RemotePath string
	Run        RunCommand
}

func (t *ScpTransport) Ship(ctx context.Context, localPath, name string) error {
	run := t.Run
	if run == nil {
		run = defaultRun
	}
	dest := t.RemotePath + "/" + name
	return run(ctx, "scp", "-i", t.KeyPath, localPath, dest)
}

// LogPutter is the slice of the charm client shipping needs.
type LogPutter interface {
	PutLog(name string, data []byte) error
}

// CharmTransport ships log files into Charm Cloud KV; the monitor host
// pulls them down with `sentinel pull`.
type CharmTransport struct {
	Client LogPutter
}

func (t *CharmTransport) Ship(ctx context.Context, localPath, name string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}
	if err := t.Client.PutLog(name, data); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// ConventionFor recovers the convention from a fleet file name, or ""
// when the name does not follow the convention.
func ConventionFor(name string) string {
	base := path.Base(name)
	for _, c := range []string{HealthConvention, GeneralConvention} {
		if len(base) > len(c) && base[:len(c)] == c && base[len(c)] == '.' {
			return c
		}
	}
	return ""
}

// HostFor recovers the host name from a fleet file name, the portion
// between the convention and the .json suffix.
func HostFor(name string) string {
	base := path.Base(name)
	c := ConventionFor(base)
	if c == "" {
		return ""
	}
	host := base[len(c)+1:]
	if len(host) > 5 && host[len(host)-5:] == ".json" {
		host = host[:len(host)-5]
	}
	return host
}
