package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-agent/pkg/config"
	"github.com/devicelab-dev/device-agent/pkg/core"
	"github.com/devicelab-dev/device-agent/pkg/driver/appium"
	"github.com/devicelab-dev/device-agent/pkg/logger"
	"github.com/devicelab-dev/device-agent/pkg/server"
	"github.com/devicelab-dev/device-agent/pkg/session"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Run the agent: HTTP API plus session keep-alive",
	Description: `Start the agent and serve the HTTP API. A descriptor persisted by a
previous run is picked up automatically, so a restarted agent resumes its
session on the first command.

Examples:
  device-agent serve
  device-agent serve --listen :7100 --appium-url http://127.0.0.1:4723
  device-agent serve --device emulator-5554 --platform android`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogFile()); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Close()
	logger.SetVerbose(cfg.Verbose || c.Bool("verbose"))

	manager, err := newManager(c, cfg)
	if err != nil {
		return err
	}

	listen := c.String("listen")
	if listen == "" {
		listen = cfg.ListenAddr()
	}
	srv := server.New(server.Config{ListenAddr: listen}, manager)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Eager connect when the command line names a device; otherwise the
	// session comes up lazily on the first command.
	if desc := descriptorFromFlags(c, cfg); desc != nil {
		if err := manager.Connect(ctx, desc); err != nil {
			logger.Warn("serve: initial connect failed, will retry on demand: %v", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		manager.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("serve: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("serve: http shutdown: %v", err)
	}

	// Close, not Disconnect: the persisted descriptor must survive the
	// restart so the next run can resume the session.
	return manager.Close(shutdownCtx)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if home := c.String("home"); home != "" {
		config.SetHome(home)
	}
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(config.GetHome())
}

func newManager(c *cli.Context, cfg *config.Config) (*session.Manager, error) {
	keepAlive, err := cfg.KeepAliveInterval()
	if err != nil {
		return nil, err
	}
	settle, err := cfg.SettleDelayDuration()
	if err != nil {
		return nil, err
	}

	return session.NewManager(session.Config{
		Factory:           appium.NewFactory(),
		Store:             session.NewFileStore(session.DefaultStorePath()),
		MaxAttempts:       cfg.RecoveryAttempts(),
		SettleDelay:       settle,
		KeepAliveInterval: keepAlive,
	})
}

// descriptorFromFlags builds a connection descriptor when the command line
// names a target. Returns nil when nothing beyond defaults is given.
func descriptorFromFlags(c *cli.Context, cfg *config.Config) *core.Descriptor {
	if c.String("device") == "" && c.String("platform") == "" {
		return nil
	}
	serverURL := c.String("appium-url")
	if serverURL == "" {
		serverURL = cfg.AutomationServerURL()
	}
	return &core.Descriptor{
		ServerURL: serverURL,
		Platform:  c.String("platform"),
		DeviceID:  c.String("device"),
		AppID:     c.String("app-id"),
	}
}
