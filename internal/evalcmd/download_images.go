package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/lehigh-university-libraries/measurer/internal/config"
	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/images"
	"golang.org/x/sync/errgroup"
)

// executeDownloadImages fetches the images of a dataset without running
// OCR. Images already on disk are skipped unless force is set.
func executeDownloadImages(ctx context.Context, cfg *config.Config, inputPath string, sample int, force bool, w io.Writer) error {
	rows, err := dataset.LoadSample(inputPath, sample)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Starting image download", "dataset", inputPath, "output", cfg.DownloadDir, "rows", len(rows))

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	fetcher := images.NewFetcher(cfg.DownloadDir, cfg.FetchTimeout)

	var successCount, skipCount, errorCount atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, row := range rows {
		g.Go(func() error {
			key := strconv.FormatInt(row.Index, 10)
			if !force {
				if _, err := os.Stat(fetcher.PathFor(key)); err == nil {
					skipCount.Add(1)
					return nil
				}
			}
			if _, err := fetcher.Fetch(gCtx, row.ImageLink, key); err != nil {
				slog.Warn("Failed to download image", "index", row.Index, "url", row.ImageLink, "err", err)
				errorCount.Add(1)
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Downloaded: %d\n", successCount.Load())
	fmt.Fprintf(w, "Skipped:    %d\n", skipCount.Load())
	fmt.Fprintf(w, "Failed:     %d\n", errorCount.Load())
	return nil
}
