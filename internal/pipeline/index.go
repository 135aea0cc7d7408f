package pipeline

import (
	"os"
	"path/filepath"
	"sync"
)

// Probe goroutines used for the batch existence check.
const indexWorkers = 8

// FinalImageName is the canonical training image inside a card directory.
const FinalImageName = "0000.jpg"

// BatchCheckExisting reports, for each card id, whether the canonical output
// image already exists under outputDir. A missing directory is simply "not
// present"; the probe is read-only and never errors.
func BatchCheckExisting(outputDir string, ids []string) map[string]bool {
	trainDir := filepath.Join(outputDir, "data", "train")
	existing := make(map[string]bool, len(ids))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, chunk := range chunkIDs(ids, (len(ids)+indexWorkers-1)/indexWorkers) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			local := make(map[string]bool, len(chunk))
			for _, id := range chunk {
				_, err := os.Stat(filepath.Join(trainDir, id, FinalImageName))
				local[id] = err == nil
			}
			mu.Lock()
			for id, ok := range local {
				existing[id] = ok
			}
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()
	return existing
}

// chunkIDs splits ids into chunks of at most chunkSize.
func chunkIDs(ids []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		return [][]string{ids}
	}
	var chunks [][]string
	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
