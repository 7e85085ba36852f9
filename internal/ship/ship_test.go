// ABOUTME: Tests for log shipping: naming, transports, failure isolation.
// ABOUTME: Uses fake command runners instead of real rsync/scp/charm.
package ship

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileName(t *testing.T) {
	got := FileName(HealthConvention, "web1")
	if got != "health_logs.web1.json" {
		t.Errorf("FileName = %q", got)
	}
}

func TestConventionAndHostFor(t *testing.T) {
	tests := []struct {
		name           string
		wantConvention string
		wantHost       string
	}{
		{"health_logs.web1.json", HealthConvention, "web1"},
		{"general_logs.db.internal.json", GeneralConvention, "db.internal"},
		{"random_file.json", "", ""},
		{"health_logs", "", ""},
	}
	for _, tt := range tests {
		if got := ConventionFor(tt.name); got != tt.wantConvention {
			t.Errorf("ConventionFor(%q) = %q, want %q", tt.name, got, tt.wantConvention)
		}
		if got := HostFor(tt.name); got != tt.wantHost {
			t.Errorf("HostFor(%q) = %q, want %q", tt.name, got, tt.wantHost)
		}
	}
}

func TestRsyncCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	tr := &RsyncTransport{
		KeyPath:    "/home/bot/.ssh/id_rsa",
		RemotePath: "bot@monitor:/srv/inbox",
		Run: func(ctx context.Context, name string, args ...string) error {
			gotName = name
			gotArgs = args
			return nil
		},
	}

	err := tr.Ship(context.Background(), "/var/log/health.json", "health_logs.web1.json")
	if err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if gotName != "rsync" {
		t.Errorf("command = %q, want rsync", gotName)
	}
	want := []string{
		"-avz", "-e", "ssh -i /home/bot/.ssh/id_rsa",
		"/var/log/health.json", "bot@monitor:/srv/inbox/health_logs.web1.json",
	}
	if strings.Join(gotArgs, "\x00") != strings.Join(want, "\x00") {
		t.Errorf("args = %v, want %v", gotArgs, want)
	}
}

func TestScpCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	tr := &ScpTransport{
		KeyPath:    "/k",
		RemotePath: "bot@monitor:/srv/inbox",
		Run: func(ctx context.Context, name string, args ...string) error {
			gotName = name
			gotArgs = args
			return nil
		},
	}

	if err := tr.Ship(context.Background(), "/l.json", "general_logs.web1.json"); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if gotName != "scp" {
		t.Errorf("command = %q, want scp", gotName)
	}
	if gotArgs[len(gotArgs)-1] != "bot@monitor:/srv/inbox/general_logs.web1.json" {
		t.Errorf("destination = %q", gotArgs[len(gotArgs)-1])
	}
}

type fakePutter struct {
	puts map[string][]byte
	err  error
}

func (f *fakePutter) PutLog(name string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[name] = data
	return nil
}

func TestCharmTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.json")
	if err := os.WriteFile(path, []byte(`{"k":"v"}`), 0600); err != nil {
		t.Fatal(err)
	}

	putter := &fakePutter{}
	tr := &CharmTransport{Client: putter}
	if err := tr.Ship(context.Background(), path, "health_logs.web1.json"); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if string(putter.puts["health_logs.web1.json"]) != `{"k":"v"}` {
		t.Errorf("stored bytes = %q", putter.puts["health_logs.web1.json"])
	}
}

func TestCharmTransportMissingFile(t *testing.T) {
	tr := &CharmTransport{Client: &fakePutter{}}
	if err := tr.Ship(context.Background(), "/no/such/file.json", "x.json"); err == nil {
		t.Error("expected error for missing local file")
	}
}

type recordingTransport struct {
	shipped []string
	failOn  string
}

func (r *recordingTransport) Ship(ctx context.Context, localPath, name string) error {
	if r.failOn != "" && strings.HasPrefix(name, r.failOn) {
		return fmt.Errorf("transport down")
	}
	r.shipped = append(r.shipped, name)
	return nil
}

func TestPushShipsBothLogs(t *testing.T) {
	tr := &recordingTransport{}
	s := &Shipper{Transport: tr, Hostname: "web1"}

	n := s.Push(context.Background(), map[string]string{
		HealthConvention:  "/var/log/health.json",
		GeneralConvention: "/var/log/general.json",
	})
	if n != 2 {
		t.Errorf("shipped %d logs, want 2", n)
	}
	want := []string{"general_logs.web1.json", "health_logs.web1.json"}
	if strings.Join(tr.shipped, " ") != strings.Join(want, " ") {
		t.Errorf("shipped = %v, want %v", tr.shipped, want)
	}
}

func TestPushFailureDoesNotStopOthers(t *testing.T) {
	tr := &recordingTransport{failOn: "general_logs"}
	var failures []string
	s := &Shipper{
		Transport: tr,
		Hostname:  "web1",
		OnError: func(name string, err error) {
			failures = append(failures, name)
		},
	}

	n := s.Push(context.Background(), map[string]string{
		HealthConvention:  "/var/log/health.json",
		GeneralConvention: "/var/log/general.json",
	})
	if n != 1 {
		t.Errorf("shipped %d logs, want 1", n)
	}
	if len(failures) != 1 || failures[0] != "general_logs.web1.json" {
		t.Errorf("failures = %v", failures)
	}
	if len(tr.shipped) != 1 || tr.shipped[0] != "health_logs.web1.json" {
		t.Errorf("surviving ship = %v", tr.shipped)
	}
}
