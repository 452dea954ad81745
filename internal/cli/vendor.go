package cli

import (
	"github.com/spf13/cobra"

	"github.com/pbauriegel/dotforge/pkg/dotbin"
	"github.com/pbauriegel/dotforge/pkg/errors"
)

func newVendorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendor",
		Short: "Manage vendored renderer binaries",
	}
	cmd.AddCommand(newVendorListCmd())
	return cmd
}

func newVendorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List vendored renderer binaries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.Render.VendorDir
			}
			if dir == "" {
				return errors.New(errors.ErrCodeInvalidInput, "no vendor directory given or configured")
			}

			locator := dotbin.NewLocator(dir)
			binaries := locator.Discover()
			if len(binaries) == 0 {
				printInfo("No vendored binaries under %s", dir)
				return nil
			}

			printInfo("Vendored binaries under %s:", dir)
			for _, b := range binaries {
				printFile(b)
			}
			if preferred := locator.Preferred(true); preferred != "" {
				printKeyValue("Preferred", preferred)
			}
			return nil
		},
	}
}
