package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pbauriegel/dotforge/pkg/dotbin"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Show which render tiers are usable on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runDoctor(cfg)
			return nil
		},
	}
}

// runDoctor reports tier availability in the order the export pipeline
// tries them.
func runDoctor(cfg config) {
	// The in-process binding ships with the binary; it is always present.
	printSuccess("native binding: available (in-process graphviz)")

	if cfg.Render.DotBinary != "" {
		if _, err := os.Stat(cfg.Render.DotBinary); err == nil {
			printSuccess("configured binary: %s", cfg.Render.DotBinary)
		} else {
			printError("configured binary: %s (not found)", cfg.Render.DotBinary)
		}
	} else {
		printDetail("configured binary: not set")
	}

	if cfg.Render.VendorDir != "" {
		locator := dotbin.NewLocator(cfg.Render.VendorDir)
		binaries := locator.Discover()
		if len(binaries) == 0 {
			printWarning("vendored binaries: none under %s", cfg.Render.VendorDir)
		} else {
			printSuccess("vendored binaries: %d under %s", len(binaries), cfg.Render.VendorDir)
			if preferred := locator.Preferred(true); preferred != "" {
				printDetail("preferred: %s", preferred)
			} else {
				printDetail("preferred: none on this platform (vendored binaries are Windows artifacts)")
			}
		}
	} else {
		printDetail("vendored binaries: no vendor directory configured")
	}

	if path, err := exec.LookPath("dot"); err == nil {
		printSuccess("system binary: %s", path)
	} else {
		printWarning("system binary: dot not found on PATH")
	}
}
