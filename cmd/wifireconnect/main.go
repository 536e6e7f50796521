// Command wifireconnect keeps a device attached to one WiFi network.
//
// It reads config.json from the working directory, writes log.txt next to
// it, and reconnects through NetworkManager whenever connectivity drops.
//
// Usage:
//
//	wifireconnect [run]     run in the foreground or under the service manager
//	wifireconnect install   register as a system service for this directory
//	wifireconnect uninstall remove the system service
//	wifireconnect scan      print visible networks and the one that would be used
//	wifireconnect version   print the build version
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wifireconnect/wifireconnect-go/internal/daemon"
	"github.com/wifireconnect/wifireconnect-go/pkg/config"
	"github.com/wifireconnect/wifireconnect-go/pkg/log"
	"github.com/wifireconnect/wifireconnect-go/pkg/nm"
	"github.com/wifireconnect/wifireconnect-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:           "wifireconnect",
	Short:         "Keep this device connected to its WiFi network",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runService,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reconnection service",
	Args:  cobra.NoArgs,
	RunE:  runService,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install as a " + service.Platform() + " service running from the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Refuse to install a service that would fail on startup.
		if _, err := config.Load(config.DefaultPath); err != nil {
			return err
		}
		s, err := newService(daemon.New(nil, logr.Discard()))
		if err != nil {
			return err
		}
		if err := s.Install(); err != nil {
			return fmt.Errorf("install service: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s service\n", daemon.ServiceName)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the " + service.Platform() + " service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newService(daemon.New(nil, logr.Discard()))
		if err != nil {
			return err
		}
		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("uninstall service: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s service\n", daemon.ServiceName)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Print the visible networks and the candidate a reconnection would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			return err
		}
		res, err := daemon.Scan(cmd.Context(), nm.NewClient(nm.ExecRunner{}), cfg.WifiSsid, cfg.Interface)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get())
	},
}

func init() {
	rootCmd.AddCommand(runCmd, installCmd, uninstallCmd, scanCmd, versionCmd)
}

func newService(i service.Interface) (service.Service, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	s, err := service.New(i, daemon.ServiceConfig(wd))
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return s, nil
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		return err
	}

	mode, level := cfg.Log()
	sink, err := log.NewFileLogger(cfg.LogFile, mode)
	if err != nil {
		return err
	}
	defer sink.Close()

	logger, err := log.New(sink, log.Options{Level: level, Console: log.TerminalConsole()})
	if err != nil {
		return err
	}
	defer log.LogUnhandled(logger)

	logger.Info("Loaded configuration", "ssid", cfg.WifiSsid, "version", version.Get().String(),
		"retry_policy", cfg.RetryPolicy, "adapter_policy", cfg.AdapterPolicy)

	engine, err := daemon.NewEngine(cfg, nm.ExecRunner{}, logger)
	if err != nil {
		return err
	}

	s, err := newService(daemon.New(engine, logger))
	if err != nil {
		return err
	}
	return s.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
