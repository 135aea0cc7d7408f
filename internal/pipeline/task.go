package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tcgforge/tcgforge/internal/images"
	"github.com/tcgforge/tcgforge/internal/tcg"
)

// PlaceholderMarker flags Scryfall's "image coming soon" sentinel URL. Cards
// pointing at it have no real artwork yet and are skipped without a request.
const PlaceholderMarker = "errors.scryfall.com/soon.jpg"

// Downloader executes one download task per card: fetch, validate, process.
type Downloader struct {
	Client *http.Client
	Width  int
	Height int
}

// DownloadOne fetches a card's image into tempPath, validates it, and
// processes it into finalPath. Every failure is converted into a Result here;
// nothing propagates past the task boundary. Whatever happens, neither a temp
// nor a partial final file survives the call.
func (d *Downloader) DownloadOne(ctx context.Context, card tcg.CardRef, tempPath, finalPath string) Result {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return d.fail(card, fmt.Errorf("create card directory: %w", err))
	}

	if strings.Contains(card.ImageURL, PlaceholderMarker) {
		return Result{Card: card, Outcome: OutcomeSkippedPlaceholder}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, card.ImageURL, nil)
	if err != nil {
		return d.fail(card, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", tcg.UserAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return d.fail(card, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return d.fail(card, fmt.Errorf("HTTP %d for %s", resp.StatusCode, card.ImageURL))
	}

	if err := writeFile(tempPath, resp.Body); err != nil {
		removeQuietly(tempPath)
		return d.fail(card, fmt.Errorf("write temp file: %w", err))
	}

	if err := images.Validate(tempPath); err != nil {
		removeQuietly(tempPath)
		return d.fail(card, fmt.Errorf("corrupt download: %w", err))
	}

	if err := images.Process(tempPath, finalPath, d.Width, d.Height); err != nil {
		removeQuietly(tempPath)
		removeQuietly(finalPath)
		return d.fail(card, fmt.Errorf("process image: %w", err))
	}

	return Result{Card: card, Outcome: OutcomeSuccess}
}

func (d *Downloader) fail(card tcg.CardRef, err error) Result {
	log.Error().Str("card", card.ID).Err(err).Msg("Download failed")
	return Result{Card: card, Outcome: OutcomeFailed, Err: err}
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// removeQuietly deletes a cleanup target, logging instead of failing so the
// original error is never masked.
func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("path", path).Err(err).Msg("Failed to clean up file")
	}
}
