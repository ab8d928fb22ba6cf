// Command localhost runs the event-driven HTTP/1.1 server core. The
// CLI is wired the way nabbar-golib's cobra/viper packages compose a
// command with bound flags, trimmed to this project's two flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/console"
	"github.com/borsokman/localhost/internal/logging"
	"github.com/borsokman/localhost/internal/server"
)

// version is set at release time; left as a literal default here since
// this project has no build-time ldflags wiring.
const version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "localhost",
		Short: "event-driven HTTP/1.1 server core",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "load a configuration file and run the event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(v)
		},
	}
	serveCmd.Flags().String("config", "", "path to the server configuration file")
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error, fatal")
	_ = serveCmd.MarkFlagRequired("config")
	_ = v.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	_ = v.BindPFlag("log-level", serveCmd.Flags().Lookup("log-level"))

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)
	return root
}

func runServe(v *viper.Viper) error {
	log := logging.New(logging.ParseLevel(v.GetString("log-level")))

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		console.Warn("configuration error: %v", err)
		return err
	}

	d, err := server.New(cfg, log)
	if err != nil {
		console.Warn("failed to start listeners: %v", err)
		return err
	}
	defer d.Close()

	addrs := make(map[string]bool)
	for _, s := range cfg.Servers {
		for _, a := range s.Listen {
			addrs[a] = true
		}
	}
	console.Info("localhost %s listening on %d address(es)", version, len(addrs))
	return d.Run()
}
