package main

import (
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tcgforge/tcgforge/internal/config"
	"github.com/tcgforge/tcgforge/internal/dataset"
	"github.com/tcgforge/tcgforge/internal/history"
	"github.com/tcgforge/tcgforge/internal/pipeline"
	"github.com/tcgforge/tcgforge/internal/tcg"
	"github.com/tcgforge/tcgforge/internal/upload"
)

// Resolve config plus the source registry
func resolveSetup(cmd *cobra.Command) (config.Config, *tcg.Registry, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, nil, err
	}
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	reg := tcg.NewRegistry()
	reg.Register(tcg.NewMTGSource(timeout))
	reg.Register(tcg.NewGASource(timeout))
	return cfg, reg, nil
}

// Flag value when set, config value otherwise
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	if fallback != "" {
		return fallback
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) || fallback <= 0 {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

// Fetch card metadata only
func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch card metadata from a TCG API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			format, err := tcg.ParseFormat(stringFlag(cmd, "source", cfg.Source))
			if err != nil {
				return err
			}
			src, err := reg.Get(format)
			if err != nil {
				return err
			}
			if err := dataset.EnsureDirectories(base); err != nil {
				return err
			}
			path, err := src.FetchMetadata(cmd.Context(), base)
			if err != nil {
				return err
			}
			fmt.Printf("metadata: %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().String("source", "", "card source: mtg or ga")
	return cmd
}

// Build the dataset end to end
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch metadata and download, validate and normalize card images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			format, err := tcg.ParseFormat(stringFlag(cmd, "source", cfg.Source))
			if err != nil {
				return err
			}
			src, err := reg.Get(format)
			if err != nil {
				return err
			}
			if err := dataset.EnsureDirectories(base); err != nil {
				return err
			}
			metadataPath, err := src.FetchMetadata(cmd.Context(), base)
			if err != nil {
				return err
			}

			started := time.Now()
			p := &pipeline.Pipeline{
				OutputDir:   base,
				Format:      format,
				Amount:      stringFlag(cmd, "amount", cfg.Amount),
				Concurrency: int64(intFlag(cmd, "threads", cfg.Concurrency)),
				Width:       intFlag(cmd, "width", cfg.Width),
				Height:      intFlag(cmd, "height", cfg.Height),
				Client: &http.Client{
					Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
				},
			}
			stats, err := p.Run(cmd.Context(), metadataPath)
			if err != nil {
				return err
			}

			recordRun(cmd, base, format, stats, time.Since(started), started)

			fmt.Printf("requested: %d\nsucceeded: %d\nskipped existing: %d\nskipped placeholder: %d\nfailed: %d\n",
				stats.TotalRequested, stats.Succeeded, stats.SkippedExisting, stats.SkippedPlaceholder, stats.Failed)
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().String("source", "", "card source: mtg or ga")
	cmd.Flags().String("amount", "all", "number of cards to process, or all")
	cmd.Flags().Int("threads", 0, "max concurrent downloads (0 = CPU count)")
	cmd.Flags().Int("width", 0, "output image width")
	cmd.Flags().Int("height", 0, "output image height")
	return cmd
}

// A failure to log the run never fails the build itself.
func recordRun(cmd *cobra.Command, base string, format tcg.Format, stats pipeline.Stats, elapsed time.Duration, started time.Time) {
	store, err := history.Open(filepath.Join(base, "tcgforge.db"))
	if err != nil {
		log.Warn().Err(err).Msg("Run history unavailable")
		return
	}
	defer store.Close()
	err = store.RecordRun(cmd.Context(), history.Run{
		StartedAt:          started,
		Source:             string(format),
		Requested:          stats.TotalRequested,
		Succeeded:          stats.Succeeded,
		SkippedExisting:    stats.SkippedExisting,
		SkippedPlaceholder: stats.SkippedPlaceholder,
		Failed:             stats.Failed,
		Duration:           elapsed,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record run")
	}
}

// Split train into train/test/validation
func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the train set into train/test/validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			sc := dataset.SplitConfig{
				TestFraction:       cfg.Split.TestFraction,
				ValidationFraction: cfg.Split.ValidationFraction,
			}
			if cmd.Flags().Changed("test") {
				sc.TestFraction, _ = cmd.Flags().GetFloat64("test")
			}
			if cmd.Flags().Changed("validation") {
				sc.ValidationFraction, _ = cmd.Flags().GetFloat64("validation")
			}
			sc.Seed, _ = cmd.Flags().GetInt64("seed")
			res, err := dataset.Split(base, sc)
			if err != nil {
				return err
			}
			fmt.Printf("train: %d\ntest: %d\nvalidation: %d\n", res.Train, res.Test, res.Validation)
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().Float64("test", 0.1, "fraction of cards moved to test")
	cmd.Flags().Float64("validation", 0.1, "fraction of cards moved to validation")
	cmd.Flags().Int64("seed", 0, "shuffle seed (0 = random)")
	return cmd
}

// Generate augmented image variants
func newAugmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Generate augmented variants for each train card",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			if verify, _ := cmd.Flags().GetBool("verify"); verify {
				corrupt, verified, err := dataset.Verify(base)
				if err != nil {
					return err
				}
				fmt.Printf("verified: %d\ncorrupt: %d\n", verified, corrupt)
				if corrupt > 0 {
					return fmt.Errorf("%d corrupt images", corrupt)
				}
				return nil
			}
			amount := intFlag(cmd, "amount", cfg.Augment.Amount)
			seed, _ := cmd.Flags().GetInt64("seed")
			res, err := dataset.Augment(base, amount, seed)
			if err != nil {
				return err
			}
			fmt.Printf("cards: %d\ngenerated: %d\nskipped: %d\n", res.Cards, res.Generated, res.Skipped)
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().Int("amount", 0, "augmented variants per card")
	cmd.Flags().Int64("seed", 0, "augmentation seed (0 = random)")
	cmd.Flags().Bool("verify", false, "verify image integrity instead of augmenting")
	return cmd
}

// Print dataset counts
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-split card and image counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			stats, err := dataset.Stats(base)
			if err != nil {
				return err
			}
			for _, split := range []string{dataset.SplitTrain, dataset.SplitTest, dataset.SplitValidation} {
				s := stats[split]
				fmt.Printf("%s\t%d cards\t%d images\n", split, s.Cards, s.Images)
			}
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	return cmd
}

// Show recorded runs
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := history.Open(filepath.Join(base, "tcgforge.db"))
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s\t%s\trequested=%d ok=%d skip=%d placeholder=%d failed=%d\t%s\n",
					r.StartedAt.Format(time.RFC3339), r.Source,
					r.Requested, r.Succeeded, r.SkippedExisting, r.SkippedPlaceholder, r.Failed,
					r.Duration.Round(time.Second))
			}
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().Int("limit", 20, "max runs to show")
	return cmd
}

// Upload the dataset over SFTP
func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the dataset to a remote host over SFTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveSetup(cmd)
			if err != nil {
				return err
			}
			base := stringFlag(cmd, "path", cfg.OutputDir)
			host := stringFlag(cmd, "host", cfg.Upload.Host)
			user := stringFlag(cmd, "user", cfg.Upload.User)
			key := stringFlag(cmd, "key", cfg.Upload.KeyPath)
			remoteDir := stringFlag(cmd, "remote-dir", cfg.Upload.RemoteDir)
			if host == "" || user == "" || key == "" || remoteDir == "" {
				return fmt.Errorf("upload requires --host, --user, --key and --remote-dir (or their config equivalents)")
			}
			port := intFlag(cmd, "port", cfg.Upload.Port)
			u := &upload.Uploader{
				Addr:           net.JoinHostPort(host, strconv.Itoa(port)),
				User:           user,
				KeyPath:        key,
				KnownHostsPath: stringFlag(cmd, "known-hosts", cfg.Upload.KnownHosts),
				Timeout:        time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
			}
			n, err := u.Push(cmd.Context(), filepath.Join(base, "data"), remoteDir)
			if err != nil {
				return err
			}
			fmt.Printf("uploaded %d files\n", n)
			return nil
		},
	}
	cmd.Flags().String("path", "", "dataset base directory")
	cmd.Flags().String("host", "", "remote host")
	cmd.Flags().Int("port", 22, "remote port")
	cmd.Flags().String("user", "", "remote user")
	cmd.Flags().String("key", "", "private key path")
	cmd.Flags().String("known-hosts", "", "known_hosts path (empty disables host checking)")
	cmd.Flags().String("remote-dir", "", "remote target directory")
	return cmd
}
