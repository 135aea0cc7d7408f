package tcg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const gaAPIBase = "https://api.gatcg.com"

// How many card-detail requests may be in flight at once.
const gaDetailConcurrency = 10

type gaCard struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type gaEdition struct {
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type gaCardDetail struct {
	Name     string      `json:"name"`
	Editions []gaEdition `json:"editions"`
}

// gaRecord is the flattened per-edition shape written to ga_cards.json.
type gaRecord struct {
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

// GASource fetches Grand Archive card metadata: one listing request, then one
// detail request per card to collect every edition's image.
type GASource struct {
	client  *http.Client
	baseURL string
}

func NewGASource(timeout time.Duration) *GASource {
	return &GASource{
		client:  &http.Client{Timeout: timeout},
		baseURL: gaAPIBase,
	}
}

func (s *GASource) Name() Format { return FormatGA }

func (s *GASource) FetchMetadata(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, FormatGA.MetadataFile())
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("path", path).Msg("Using existing metadata file")
		return path, nil
	}

	log.Info().Msg("Fetching card list from Grand Archive API")
	var cards []gaCard
	if err := s.getJSON(ctx, s.baseURL+"/cards/all", &cards); err != nil {
		return "", fmt.Errorf("fetch card list: %w", err)
	}
	log.Info().Int("cards", len(cards)).Msg("Fetching card details")

	var (
		mu      sync.Mutex
		records []gaRecord
		wg      sync.WaitGroup
		sem     = semaphore.NewWeighted(gaDetailConcurrency)
	)
	for _, card := range cards {
		if err := sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("fetch card details: %w", err)
		}
		wg.Add(1)
		go func(slug string) {
			defer wg.Done()
			defer sem.Release(1)
			var detail gaCardDetail
			if err := s.getJSON(ctx, s.baseURL+"/cards/"+slug, &detail); err != nil {
				log.Warn().Str("slug", slug).Err(err).Msg("Failed to fetch card detail")
				return
			}
			mu.Lock()
			for _, ed := range detail.Editions {
				records = append(records, gaRecord{
					Slug:  ed.Slug,
					Image: s.baseURL + ed.Image,
				})
			}
			mu.Unlock()
		}(card.Slug)
	}
	wg.Wait()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write metadata file: %w", err)
	}
	log.Info().Str("path", path).Int("editions", len(records)).Msg("Card data downloaded")
	return path, nil
}

func (s *GASource) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: HTTP %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	return nil
}
