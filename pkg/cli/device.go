package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-agent/pkg/device"
	"github.com/devicelab-dev/device-agent/pkg/logger"
	"github.com/devicelab-dev/device-agent/pkg/session"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Print the persisted session status as JSON",
	Description: `Print the session status an agent would resume with: the persisted
descriptor and the current state.

Examples:
  device-agent status`,
	Action: runStatus,
}

var screenshotCommand = &cli.Command{
	Name:  "screenshot",
	Usage: "Capture a screenshot from the connected device",
	Description: `Capture a PNG screenshot using the persisted session descriptor.

Examples:
  device-agent screenshot
  device-agent screenshot -o screen.png`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file",
			Value:   "screenshot.png",
		},
	},
	Action: runScreenshot,
}

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the view hierarchy of the connected device",
	Description: `Print the device's view hierarchy XML using the persisted session
descriptor.

Examples:
  device-agent hierarchy
  device-agent hierarchy --device emulator-5554`,
	Action: runHierarchy,
}

// oneShotManager builds a manager for commands that run outside a serving
// agent. They rely on the persisted descriptor (or flags) to reach the device.
func oneShotManager(c *cli.Context) (*session.Manager, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogFile()); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger.SetVerbose(cfg.Verbose || c.Bool("verbose"))

	manager, err := newManager(c, cfg)
	if err != nil {
		return nil, err
	}

	if desc := descriptorFromFlags(c, cfg); desc != nil {
		if err := manager.Connect(c.Context, desc); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func runStatus(c *cli.Context) error {
	manager, err := oneShotManager(c)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer manager.Close(c.Context)

	out, err := json.MarshalIndent(manager.Status(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runScreenshot(c *cli.Context) error {
	manager, err := oneShotManager(c)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer manager.Close(c.Context)

	png, err := device.NewActions(manager).Screenshot(c.Context)
	if err != nil {
		return err
	}

	output := c.String("output")
	if err := os.WriteFile(output, png, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	fmt.Printf("Screenshot saved to %s\n", output)
	return nil
}

func runHierarchy(c *cli.Context) error {
	manager, err := oneShotManager(c)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer manager.Close(c.Context)

	xml, err := device.NewActions(manager).Hierarchy(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(xml)
	return nil
}
