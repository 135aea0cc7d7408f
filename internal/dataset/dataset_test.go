package dataset

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// seedCards creates n card directories under data/train, each with a canonical
// 0000.jpg.
func seedCards(t *testing.T, base string, n int) {
	t.Helper()
	if err := EnsureDirectories(base); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(100, 140, color.NRGBA{R: 180, G: 20, B: 20, A: 255})
	for i := 0; i < n; i++ {
		dir := filepath.Join(base, "data", SplitTrain, fmt.Sprintf("card-%03d", i))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := imaging.Save(img, filepath.Join(dir, "0000.jpg")); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := filepath.Join(t.TempDir(), "dataset")
	if err := EnsureDirectories(base); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{base, filepath.Join(base, "data"), filepath.Join(base, "data", SplitTrain)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
	// Re-running against an existing tree is a no-op.
	if err := EnsureDirectories(base); err != nil {
		t.Fatalf("second EnsureDirectories failed: %v", err)
	}
}

func TestSplit(t *testing.T) {
	base := t.TempDir()
	seedCards(t, base, 20)

	res, err := Split(base, SplitConfig{TestFraction: 0.2, ValidationFraction: 0.1, Seed: 42})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if res.Test != 4 || res.Validation != 2 || res.Train != 14 {
		t.Fatalf("unexpected split sizes: %+v", res)
	}

	counts := map[string]int{}
	total := 0
	for _, split := range []string{SplitTrain, SplitTest, SplitValidation} {
		ids, err := cardDirs(filepath.Join(base, "data", split))
		if err != nil {
			t.Fatal(err)
		}
		counts[split] = len(ids)
		total += len(ids)
	}
	// Renames, never copies: every card lives in exactly one split.
	if total != 20 {
		t.Errorf("expected 20 cards across splits, got %d", total)
	}
	if counts[SplitTest] != 4 || counts[SplitValidation] != 2 {
		t.Errorf("on-disk counts disagree with result: %v", counts)
	}
}

func TestSplitSeedIsDeterministic(t *testing.T) {
	pick := func() []string {
		base := t.TempDir()
		seedCards(t, base, 10)
		if _, err := Split(base, SplitConfig{TestFraction: 0.3, ValidationFraction: 0, Seed: 7}); err != nil {
			t.Fatal(err)
		}
		ids, err := cardDirs(filepath.Join(base, "data", SplitTest))
		if err != nil {
			t.Fatal(err)
		}
		return ids
	}
	a, b := pick(), pick()
	if len(a) != len(b) {
		t.Fatalf("different sample sizes: %d vs %d", len(a), len(b))
	}
	inA := map[string]bool{}
	for _, id := range a {
		inA[id] = true
	}
	for _, id := range b {
		if !inA[id] {
			t.Fatalf("same seed picked different cards: %v vs %v", a, b)
		}
	}
}

func TestSplitInvalidFractions(t *testing.T) {
	base := t.TempDir()
	seedCards(t, base, 5)

	cases := []SplitConfig{
		{TestFraction: -0.1, ValidationFraction: 0.1},
		{TestFraction: 0.1, ValidationFraction: -0.1},
		{TestFraction: 0.6, ValidationFraction: 0.4},
	}
	for _, cfg := range cases {
		if _, err := Split(base, cfg); err == nil {
			t.Errorf("expected error for fractions %+v", cfg)
		}
	}
}

func TestSplitEmptyTrain(t *testing.T) {
	base := t.TempDir()
	if err := EnsureDirectories(base); err != nil {
		t.Fatal(err)
	}
	if _, err := Split(base, SplitConfig{TestFraction: 0.1, ValidationFraction: 0.1}); err == nil {
		t.Fatal("expected error for empty train set")
	}
}

func TestStats(t *testing.T) {
	base := t.TempDir()
	seedCards(t, base, 3)
	// One extra image and one non-image file in a card dir.
	extra := filepath.Join(base, "data", SplitTrain, "card-000")
	img := imaging.New(50, 70, color.NRGBA{A: 255})
	if err := imaging.Save(img, filepath.Join(extra, "0001.jpg")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(extra, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := Stats(base)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[SplitTrain].Cards != 3 {
		t.Errorf("expected 3 train cards, got %d", stats[SplitTrain].Cards)
	}
	if stats[SplitTrain].Images != 4 {
		t.Errorf("expected 4 train images, got %d", stats[SplitTrain].Images)
	}
	if stats[SplitTest].Cards != 0 || stats[SplitValidation].Cards != 0 {
		t.Errorf("expected empty test/validation, got %+v", stats)
	}
}

func TestAugment(t *testing.T) {
	base := t.TempDir()
	seedCards(t, base, 4)

	res, err := Augment(base, 2, 99)
	if err != nil {
		t.Fatalf("Augment failed: %v", err)
	}
	if res.Cards != 4 {
		t.Errorf("expected 4 cards, got %d", res.Cards)
	}
	if res.Generated != 8 {
		t.Errorf("expected 8 generated variants, got %d", res.Generated)
	}

	// Second pass finds enough variants everywhere and skips.
	res, err = Augment(base, 2, 99)
	if err != nil {
		t.Fatalf("second Augment failed: %v", err)
	}
	if res.Generated != 0 || res.Skipped != 4 {
		t.Errorf("expected all skipped on re-run, got %+v", res)
	}
}

func TestVerify(t *testing.T) {
	base := t.TempDir()
	seedCards(t, base, 2)
	corruptPath := filepath.Join(base, "data", SplitTrain, "card-000", "0001.jpg")
	if err := os.WriteFile(corruptPath, make([]byte, 512), 0o644); err != nil {
		t.Fatal(err)
	}

	corrupt, verified, err := Verify(base)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if corrupt != 1 {
		t.Errorf("expected 1 corrupt image, got %d", corrupt)
	}
	if verified != 2 {
		t.Errorf("expected 2 verified images, got %d", verified)
	}
}
