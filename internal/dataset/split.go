package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// SplitConfig controls the proportional random split. Fractions apply to the
// current train set; Seed 0 means a time-seeded shuffle.
type SplitConfig struct {
	TestFraction       float64
	ValidationFraction float64
	Seed               int64
}

// SplitResult reports how many card directories each split holds afterwards.
type SplitResult struct {
	Train      int
	Test       int
	Validation int
}

// Split moves a random sample of card directories from data/train into
// data/test and data/validation. Moving is a rename, so a card is only ever in
// one split.
func Split(base string, cfg SplitConfig) (SplitResult, error) {
	var res SplitResult
	if cfg.TestFraction < 0 || cfg.ValidationFraction < 0 || cfg.TestFraction+cfg.ValidationFraction >= 1 {
		return res, fmt.Errorf("invalid split fractions: test=%v validation=%v", cfg.TestFraction, cfg.ValidationFraction)
	}

	trainDir := filepath.Join(base, "data", SplitTrain)
	ids, err := cardDirs(trainDir)
	if err != nil {
		return res, err
	}
	if len(ids) == 0 {
		return res, fmt.Errorf("no card directories in %s", trainDir)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	nTest := int(float64(len(ids)) * cfg.TestFraction)
	nVal := int(float64(len(ids)) * cfg.ValidationFraction)

	if err := moveCards(base, ids[:nTest], SplitTest); err != nil {
		return res, err
	}
	if err := moveCards(base, ids[nTest:nTest+nVal], SplitValidation); err != nil {
		return res, err
	}

	res.Train = len(ids) - nTest - nVal
	res.Test = nTest
	res.Validation = nVal
	log.Info().
		Int("train", res.Train).
		Int("test", res.Test).
		Int("validation", res.Validation).
		Msg("Split complete")
	return res, nil
}

func moveCards(base string, ids []string, split string) error {
	if len(ids) == 0 {
		return nil
	}
	targetDir := filepath.Join(base, "data", split)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create %s directory: %w", split, err)
	}
	for _, id := range ids {
		from := filepath.Join(base, "data", SplitTrain, id)
		to := filepath.Join(targetDir, id)
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("move %s to %s: %w", id, split, err)
		}
	}
	return nil
}
