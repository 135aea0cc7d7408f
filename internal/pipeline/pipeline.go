package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/tcgforge/tcgforge/internal/tcg"
)

// Pipeline drives one dataset-building run: load metadata, truncate, filter
// out cards already on disk, fan out downloads, aggregate the outcomes.
type Pipeline struct {
	OutputDir   string
	Format      tcg.Format
	Amount      string // "all" or a positive integer; first-N truncation
	Concurrency int64
	Width       int
	Height      int
	Client      *http.Client
}

// Run executes the pipeline against a metadata file. Per-card failures are
// absorbed into the returned Stats; only structural problems (bad metadata,
// bad amount, uncreatable output dir) abort the run.
func (p *Pipeline) Run(ctx context.Context, metadataPath string) (Stats, error) {
	var stats Stats

	cards, err := tcg.LoadCards(metadataPath, p.Format)
	if err != nil {
		return stats, err
	}
	stats.TotalAvailable = len(cards)

	cards, err = truncate(cards, p.Amount)
	if err != nil {
		return stats, err
	}
	stats.TotalRequested = len(cards)

	trainDir := filepath.Join(p.OutputDir, "data", "train")
	if err := os.MkdirAll(trainDir, 0o755); err != nil {
		return stats, fmt.Errorf("create train directory: %w", err)
	}

	log.Info().
		Int("available", stats.TotalAvailable).
		Int("requested", stats.TotalRequested).
		Int64("concurrency", p.Concurrency).
		Msg("Starting download")

	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	existing := BatchCheckExisting(p.OutputDir, ids)

	work := cards[:0]
	for _, c := range cards {
		if existing[c.ID] {
			stats.SkippedExisting++
			continue
		}
		work = append(work, c)
	}
	log.Info().
		Int("existing", stats.SkippedExisting).
		Int("new", len(work)).
		Msg("Existence check complete")

	if len(work) == 0 {
		return stats, nil
	}

	d := &Downloader{Client: p.Client, Width: p.Width, Height: p.Height}
	tempName := "temp." + p.Format.TempExt()
	results := RunAll(ctx, work, p.Concurrency, func(ctx context.Context, card tcg.CardRef) Result {
		cardDir := filepath.Join(trainDir, card.ID)
		return d.DownloadOne(ctx, card, filepath.Join(cardDir, tempName), filepath.Join(cardDir, FinalImageName))
	}, func(done, total int) {
		log.Debug().Int("done", done).Int("total", total).Msg("Progress")
	})

	for _, r := range results {
		switch r.Outcome {
		case OutcomeSuccess:
			stats.Succeeded++
		case OutcomeSkippedPlaceholder:
			stats.SkippedPlaceholder++
		case OutcomeFailed:
			stats.Failed++
		}
	}

	if stats.Failed > 0 {
		log.Warn().Int("failed", stats.Failed).Msg("Some downloads failed")
	}
	log.Info().
		Int("succeeded", stats.Succeeded).
		Int("skipped_existing", stats.SkippedExisting).
		Int("skipped_placeholder", stats.SkippedPlaceholder).
		Int("failed", stats.Failed).
		Msg("Download complete")
	return stats, nil
}

// truncate applies the "amount" cap: "all" (or empty) keeps everything, a
// positive integer keeps the first N in metadata order. Anything else is a
// structural error.
func truncate(cards []tcg.CardRef, amount string) ([]tcg.CardRef, error) {
	if amount == "" || amount == "all" {
		return cards, nil
	}
	n, err := strconv.Atoi(amount)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid amount value: %q", amount)
	}
	if n < len(cards) {
		cards = cards[:n]
	}
	return cards, nil
}
