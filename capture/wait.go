package capture

import (
	"context"
	"os"
	"time"
)

// WaitForFile polls until path exists or ctx ends.
func WaitForFile(ctx context.Context, path string, poll time.Duration) error {
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
