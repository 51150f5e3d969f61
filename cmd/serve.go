package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smilabus.dev/schedule/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the schedule page and JSON API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var addr string

func init() {
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	listen := a.cfg.Addr
	if addr != "" {
		listen = addr
	}

	srv, err := server.New(server.Config{
		Addr:     listen,
		Manager:  a.manager,
		Clock:    a.clock,
		Provider: a.provider(),
		Metrics:  a.metrics,
	})
	if err != nil {
		return err
	}

	go a.manager.RefreshLoop(ctx)

	return srv.Serve(ctx)
}
