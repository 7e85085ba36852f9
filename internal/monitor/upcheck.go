// ABOUTME: URL liveness checks for the monitor's up_checks scan.
// ABOUTME: Fetches links concurrently; non-200s become alerts.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// UpCheckResult summarizes one round of link checks.
type UpCheckResult struct {
	Up        int
	Total     int
	Alerts    string
	Heartbeat string
}

// upCheckConcurrency bounds parallel fetches per round.
const upCheckConcurrency = 8

// CheckLinks fetches every link and reports liveness. Heartbeat lines
// keep the input order regardless of completion order.
func CheckLinks(ctx context.Context, links []string, client *http.Client) UpCheckResult {
	res := UpCheckResult{Total: len(links)}
	if len(links) == 0 {
		return res
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	type outcome struct {
		beat  string
		alert string
		up    bool
	}
	outcomes := make([]outcome, len(links))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(upCheckConcurrency)
	for i, link := range links {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
			if err != nil {
				outcomes[i] = outcome{
					beat:  fmt.Sprintf("  ❎ %s\n", link),
					alert: fmt.Sprintf("%s not fetched. Exception:\n    %v\n", link, err),
				}
				return nil
			}
			resp, err := client.Do(req)
			if err != nil {
				outcomes[i] = outcome{
					beat:  fmt.Sprintf("  ❎ %s\n", link),
					alert: fmt.Sprintf("%s not fetched. Exception:\n    %v\n", link, err),
				}
				return nil
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				outcomes[i] = outcome{
					beat:  fmt.Sprintf("  ❌  %s\n", link),
					alert: fmt.Sprintf("%s is down with error: %d\n", link, resp.StatusCode),
				}
				return nil
			}
			outcomes[i] = outcome{beat: fmt.Sprintf("  ✅  %s\n", link), up: true}
			return nil
		})
	}
	_ = g.Wait()

	var alerts, beats strings.Builder
	for _, o := range outcomes {
		if o.up {
			res.Up++
		}
		beats.WriteString(o.beat)
		alerts.WriteString(o.alert)
	}

	mark := "❎"
	if res.Up == res.Total {
		mark = "✅"
	}
	res.Heartbeat = fmt.Sprintf("%s %d/%d URLs are up.\n\n%s", mark, res.Up, res.Total, beats.String())
	res.Alerts = alerts.String()
	return res
}
