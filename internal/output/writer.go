package output

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/pagepulse/internal/metrics"
	"github.com/torosent/pagepulse/internal/threshold"
)

const lockRetryDelay = 50 * time.Millisecond

// WriteHTMLReport renders the HTML report to the given path. The file is
// guarded by a sibling .lock file so concurrent sessions writing to the
// same report path do not interleave.
func WriteHTMLReport(ctx context.Context, path string, stats metrics.Stats, history []metrics.DataPoint, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("locking report file: %w", err)
	}
	if !locked {
		return fmt.Errorf("report file %s is locked by another process", path)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	if err := GenerateHTMLReport(f, stats, history, thresholdResults, metadata); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
