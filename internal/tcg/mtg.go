package tcg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// UserAgent identifies this tool on every outbound request.
const UserAgent = "TCGForge/1.0"

const scryfallBulkURL = "https://api.scryfall.com/bulk-data"

// The Scryfall bulk-data type that carries every card object.
const scryfallAllCards = "all_cards"

type bulkDataItem struct {
	Type        string `json:"type"`
	DownloadURI string `json:"download_uri"`
}

type bulkDataResponse struct {
	Data []bulkDataItem `json:"data"`
}

// MTGSource fetches Magic: The Gathering card metadata via the Scryfall bulk
// data API: one request for the envelope, one download for the card blob.
type MTGSource struct {
	client  *http.Client
	baseURL string
}

func NewMTGSource(timeout time.Duration) *MTGSource {
	return &MTGSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: scryfallBulkURL,
	}
}

func (s *MTGSource) Name() Format { return FormatMTG }

func (s *MTGSource) FetchMetadata(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, FormatMTG.MetadataFile())
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("path", path).Msg("Using existing metadata file")
		return path, nil
	}

	log.Info().Msg("Fetching bulk data index from Scryfall")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("build bulk data request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch bulk data index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bulk data index: HTTP %d", resp.StatusCode)
	}

	var bulk bulkDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulk); err != nil {
		return "", fmt.Errorf("parse bulk data index: %w", err)
	}

	for _, item := range bulk.Data {
		if item.Type == scryfallAllCards {
			if err := s.downloadBlob(ctx, item.DownloadURI, path); err != nil {
				return "", err
			}
			return path, nil
		}
	}
	return "", fmt.Errorf("data type %q not found in Scryfall bulk data", scryfallAllCards)
}

func (s *MTGSource) downloadBlob(ctx context.Context, uri, path string) error {
	log.Info().Str("uri", uri).Msg("Downloading card data")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("build blob request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("download card data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download card data: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write metadata file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close metadata file: %w", err)
	}
	log.Info().Str("path", path).Msg("Card data downloaded")
	return nil
}
