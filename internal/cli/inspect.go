package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/upysusa/csvinjector/internal/charset"
	"github.com/upysusa/csvinjector/internal/importer"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the load order, one tier per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := loadPlan(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, tier := range p.Tiers() {
				fmt.Fprintf(out, "Tier %d: %s\n", i+1, strings.Join(tier, ", "))
			}
			return nil
		},
	}
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print the detected encoding of every plan file without loading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := loadPlan(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, tier := range p.Tiers() {
				for _, table := range tier {
					path := importer.SourcePath(cfg.CSVDir, table, cfg.Extension)
					raw, err := importer.ReadAll(path)
					if err != nil {
						warnColor.Fprintf(out, "✗ %-24s %v\n", table, err)
						failed++
						continue
					}

					det, err := charset.Detect(raw)
					switch {
					case err != nil:
						warnColor.Fprintf(out, "✗ %-24s %v\n", table, err)
						failed++
					case det.Confidence < cfg.MinConfidence:
						warnColor.Fprintf(out, "✗ %-24s %s (below %d%%)\n", table, det, cfg.MinConfidence)
						failed++
					default:
						fmt.Fprintf(out, "✓ %-24s %s\n", table, det)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files cannot be loaded", failed, p.Len())
			}
			return nil
		},
	}
}
