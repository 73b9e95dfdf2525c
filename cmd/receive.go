package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/config"
	"github.com/landrop/landrop/internal/discovery"
	"github.com/landrop/landrop/internal/frontend"
	"github.com/landrop/landrop/internal/logging"
	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/server"
	"github.com/landrop/landrop/internal/session"
	"github.com/landrop/landrop/internal/tlsutil"
	"github.com/landrop/landrop/internal/ui"
	"github.com/landrop/landrop/internal/utils"
)

var (
	flagAlias string
	flagPort  int
	flagDir   string
)

var receiveCmd = &cobra.Command{
	Use:     "receive",
	Aliases: []string{"r"},
	Short:   "Announce this device and receive incoming files",
	Long: `Announce this device on the local network and wait for senders.

Examples:
  landrop receive
  landrop receive --dir ~/Downloads --alias laptop
  landrop receive --config ~/.config/landrop.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, config.Overrides{
			Alias:          flagAlias,
			Port:           flagPort,
			DestinationDir: flagDir,
			LogLevel:       flagLogLevel,
		})
		if err != nil {
			return err
		}
		return runReceive(cfg)
	},
}

func runReceive(cfg *config.Config) error {
	logging.Setup(cfg.Log)
	logger := slog.Default()

	self := selfDevice(cfg)
	fingerprint := uuid.NewString()

	scanner, err := discovery.New(discovery.Options{
		Self:        self,
		Fingerprint: fingerprint,
		Group:       cfg.Multicast.Group,
		Port:        cfg.Port,
		Interval:    cfg.Multicast.Interval,
		Repeat:      cfg.Multicast.Repeat,
	}, logger)
	if err != nil {
		return err
	}

	cert, err := tlsutil.SelfSigned("Localsend client")
	if err != nil {
		return fmt.Errorf("generate certificate: %w", err)
	}

	b := bus.New()
	ctrl := session.NewController(b, cfg.Receive.Dir, logger)
	srv := server.New(fmt.Sprintf("0.0.0.0:%d", cfg.Port), cert, ctrl, cfg.Alias, logger)
	fe := frontend.New(b, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ui.PrintSuccessf("Announcing as %q on port %d, saving to %s",
		cfg.Alias, cfg.Port, cfg.Receive.Dir)
	ui.PrintInfo("Waiting for senders. Press Ctrl+C to quit.")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scanner.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	g.Go(func() error {
		fe.Run(ctx)
		return nil
	})

	err = g.Wait()
	b.Close()
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		return nil
	}
	return err
}

// selfDevice builds the identity announced over multicast.
func selfDevice(cfg *config.Config) protocol.DeviceInfo {
	ip := ""
	if addr := utils.LocalIP(); addr != nil {
		ip = addr.String()
	}
	return protocol.DeviceInfo{
		Alias:       cfg.Alias,
		DeviceType:  cfg.Device.Type,
		DeviceModel: cfg.Device.Model,
		IP:          ip,
		Port:        cfg.Port,
	}
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringVarP(&flagAlias, "alias", "a", "", "Device alias announced to peers")
	receiveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Discovery and transfer port")
	receiveCmd.Flags().StringVarP(&flagDir, "dir", "d", "", "Directory to save received files")
}
