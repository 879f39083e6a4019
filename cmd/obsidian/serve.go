package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codingwatching/ProjectObsidian/pkg/modules/clickdistance"
	"github.com/codingwatching/ProjectObsidian/pkg/modules/core"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
	"github.com/codingwatching/ProjectObsidian/pkg/store"
	"github.com/codingwatching/ProjectObsidian/pkg/transport/ws"
)

// fileConfig is the JSON configuration file schema.
type fileConfig struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	MOTD          string `json:"motd"`
	MaxPlayers    int    `json:"max_players"`
	DisableCPE    bool   `json:"disable_cpe"`
	StatusAddress string `json:"status_address"`
	WebAddress    string `json:"web_address"`
	ArchiveDir    string `json:"archive_dir"`
	ArchiveBucket string `json:"archive_bucket"`
	ClickDistance int16  `json:"click_distance"`
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		address    string
		statusAddr string
		webAddr    string
		maxPlayers int
		disableCPE bool
		logJSON    bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
		Long: `Start the game server and listen for clients.

Examples:
  obsidian serve
  obsidian serve --address=:25565 --status=:8080
  obsidian serve --config=server.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := fileConfig{}
			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
				if err := json.Unmarshal(data, &fc); err != nil {
					return fmt.Errorf("parsing config: %w", err)
				}
			}
			// Flags win over the config file.
			if address != "" {
				fc.Address = address
			}
			if statusAddr != "" {
				fc.StatusAddress = statusAddr
			}
			if webAddr != "" {
				fc.WebAddress = webAddr
			}
			if maxPlayers != 0 {
				fc.MaxPlayers = maxPlayers
			}
			if disableCPE {
				fc.DisableCPE = true
			}
			return runServe(cmd.Context(), fc, logJSON, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	cmd.Flags().StringVarP(&address, "address", "a", "", "TCP address to listen on")
	cmd.Flags().StringVar(&statusAddr, "status", "", "HTTP address for status and metrics")
	cmd.Flags().StringVar(&webAddr, "web", "", "HTTP address for WebSocket clients")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Maximum concurrent players")
	cmd.Flags().BoolVar(&disableCPE, "disable-cpe", false, "Disable protocol extension negotiation")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(ctx context.Context, fc fileConfig, logJSON, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	archive, err := openArchive(ctx, fc)
	if err != nil {
		return err
	}

	srv := server.New(&server.Config{
		Address:       fc.Address,
		Name:          fc.Name,
		MOTD:          fc.MOTD,
		MaxPlayers:    fc.MaxPlayers,
		DisableCPE:    fc.DisableCPE,
		StatusAddress: fc.StatusAddress,
		Archive:       archive,
		Logger:        logger,
	})

	var clickCfg *clickdistance.Config
	if fc.ClickDistance > 0 {
		clickCfg = &clickdistance.Config{Distance: fc.ClickDistance}
	}
	if err := srv.Load(
		core.New(),
		clickdistance.New(clickCfg),
	); err != nil {
		return err
	}
	if err := srv.Seal(); err != nil {
		return err
	}
	if verbose {
		srv.Packets().Dump()
	}

	if fc.WebAddress != "" {
		webSrv := &http.Server{
			Addr:        fc.WebAddress,
			Handler:     ws.NewHandler(srv, &ws.Config{Logger: logger}),
			ReadTimeout: 30 * time.Second,
		}
		go func() {
			logger.Info("websocket listener started", "address", fc.WebAddress)
			if err := webSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("websocket listener failed", "error", err)
			}
		}()
		defer webSrv.Close()
	}

	return srv.ListenAndServe(ctx)
}

// openArchive builds the capture sink from the config: an S3 bucket when
// set, a local directory otherwise, nil when neither is configured.
func openArchive(ctx context.Context, fc fileConfig) (store.Store, error) {
	switch {
	case fc.ArchiveBucket != "":
		s3store, err := store.OpenS3(ctx, fc.ArchiveBucket, "obsidian/")
		if err != nil {
			return nil, fmt.Errorf("opening archive bucket: %w", err)
		}
		return s3store, nil
	case fc.ArchiveDir != "":
		dir, err := store.NewDirStore(fc.ArchiveDir)
		if err != nil {
			return nil, fmt.Errorf("opening archive directory: %w", err)
		}
		return dir, nil
	default:
		return nil, nil
	}
}
