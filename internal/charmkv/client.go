// ABOUTME: Charm KV client wrapper for shipped log files.
// ABOUTME: Stores whole log files under logs:<name> keys with cloud sync.
package charmkv

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
)

const (
	dbName    = "sentinel"
	charmHost = "charm.2389.dev"

	// LogPrefix keys shipped log files by their fleet file name,
	// e.g. logs:health_logs.web1.json.
	LogPrefix = "logs:"
)

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// Client wraps the Charm KV store used as a shipping transport.
type Client struct {
	kv *kv.KV
	mu sync.RWMutex
}

// InitClient initializes the global Charm client.
// Thread-safe; can be called multiple times.
func InitClient() (*Client, error) {
	clientOnce.Do(func() {
		// Set server before opening KV
		if err := os.Setenv("CHARM_HOST", charmHost); err != nil {
			clientErr = err
			return
		}

		db, err := kv.OpenWithDefaultsFallback(dbName)
		if err != nil {
			clientErr = err
			return
		}

		globalClient = &Client{kv: db}

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// PutLog stores a shipped log file's bytes under its fleet name and
// syncs to Charm Cloud.
func (c *Client) PutLog(name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return fmt.Errorf("cannot write: database is locked by another process")
	}

	if err := c.kv.Set([]byte(LogPrefix+name), data); err != nil {
		return err
	}
	return c.kv.Sync()
}

// GetLog retrieves a shipped log file by fleet name.
func (c *Client) GetLog(name string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get([]byte(LogPrefix + name))
}

// ListLogs returns the fleet names of every shipped log, refreshing
// from Charm Cloud first when the store is writable.
func (c *Client) ListLogs() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, key := range keys {
		if bytes.HasPrefix(key, []byte(LogPrefix)) {
			names = append(names, strings.TrimPrefix(string(key), LogPrefix))
		}
	}
	return names, nil
}
