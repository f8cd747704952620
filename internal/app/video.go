package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/config"
	"github.com/HenryPDT/edgeprov/internal/video"
)

func NewVideoCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Manage recorded video files",
	}
	cmd.AddCommand(newVideoSplitCommand(cfg))
	return cmd
}

func newVideoSplitCommand(cfg *config.Config) *cobra.Command {
	var dir string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split oversized recordings into bounded segments",
		Long:  "Finds recordings larger than the configured segment size and cuts them with ffmpeg without re-encoding. Originals are removed only after every segment validates as non-empty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			if dir == "" {
				dir = cfg.RecordingsDir
			}
			recs, err := video.ScanDir(dir)
			if err != nil {
				return err
			}
			plan := video.Plan(recs, cfg.SegmentBytes)
			if len(plan) == 0 {
				fmt.Printf("No recordings above %dGB in %s.\n", cfg.SegmentBytes/1_000_000_000, dir)
				return nil
			}

			fmt.Printf("%d recordings to split:\n", len(plan))
			for _, rec := range plan {
				fmt.Printf("  %s (%dGB)\n", rec.Path, rec.Size/1_000_000_000)
			}
			if dryRun {
				return nil
			}

			s := &video.Splitter{Runner: env.Runner, Log: env.Log, MaxBytes: cfg.SegmentBytes}
			var failed int
			for _, rec := range plan {
				segments, err := s.Split(ctx, rec)
				if err != nil {
					fmt.Printf("  %s: %v\n", rec.Path, err)
					failed++
					continue
				}
				fmt.Printf("  %s -> %d segments\n", rec.Path, len(segments))
			}
			if failed > 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("%d of %d splits failed", failed, len(plan))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "recordings directory (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the plan without splitting")
	return cmd
}
