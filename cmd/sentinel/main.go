// ABOUTME: Entry point for the sentinel CLI.
// ABOUTME: Propagates dispatched task exit codes unchanged.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harperreed/sentinel/internal/dispatch"
)

func main() {
	if err := Execute(); err != nil {
		var ee *dispatch.ExitError
		if errors.As(err, &ee) {
			// The dispatcher adds no output of its own; the failing
			// task already wrote whatever it had to say.
			os.Exit(ee.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
