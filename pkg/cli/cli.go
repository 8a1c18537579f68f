// Package cli provides the command-line interface for device-agent.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to agent.yaml (defaults to agent home)",
		EnvVars: []string{"DEVICE_AGENT_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "home",
		Usage:   "Agent home directory (logs, state)",
		EnvVars: []string{"DEVICE_AGENT_HOME"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform of the target device (ios, android)",
		EnvVars: []string{"DEVICE_AGENT_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device ID to attach to",
		EnvVars: []string{"DEVICE_AGENT_DEVICE"},
	},
	&cli.StringFlag{
		Name:    "app-id",
		Usage:   "Default app identifier (bundle ID or package name)",
		EnvVars: []string{"DEVICE_AGENT_APP_ID"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"DEVICE_AGENT_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "device-agent",
		Usage:   "Session lifecycle agent for mobile device automation",
		Version: Version,
		Description: `Device Agent keeps one long-lived automation session against an
Appium server, recovers it when it goes stale, and exposes it over an HTTP API.

Examples:
  device-agent serve
  device-agent serve --appium-url http://127.0.0.1:4723 --device emulator-5554
  device-agent status
  device-agent screenshot -o screen.png
  device-agent hierarchy`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			serveCommand,
			statusCommand,
			screenshotCommand,
			hierarchyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
