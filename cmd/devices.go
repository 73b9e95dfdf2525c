package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/landrop/landrop/internal/config"
	"github.com/landrop/landrop/internal/discovery"
	"github.com/landrop/landrop/internal/logging"
	"github.com/landrop/landrop/internal/ui"
)

var flagScanWindow time.Duration

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "Scan the local network for LocalSend peers",
	Long: `Join the discovery multicast group, announce once, and list every
peer observed within the scan window.

Examples:
  landrop devices
  landrop devices --window 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, config.Overrides{
			LogLevel: flagLogLevel,
		})
		if err != nil {
			return err
		}
		return scanDevices(cfg)
	},
}

func scanDevices(cfg *config.Config) error {
	logging.Setup(cfg.Log)

	scanner, err := discovery.New(discovery.Options{
		Self:        selfDevice(cfg),
		Fingerprint: uuid.NewString(),
		Group:       cfg.Multicast.Group,
		Port:        cfg.Port,
		Interval:    cfg.Multicast.Interval,
		Repeat:      cfg.Multicast.Repeat,
	}, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagScanWindow)
	defer cancel()

	stop := ui.RunWaitingSpinner("Scanning for devices...")
	err = scanner.Run(ctx)
	stop()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	ui.RenderDevicesTable(scanner.Devices())
	return nil
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().DurationVarP(&flagScanWindow, "window", "w", 10*time.Second, "How long to scan")
}
