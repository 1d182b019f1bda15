package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/tcmdx/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the consultation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := buildRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.Options{
			Consult:     rt.consult,
			Diagnosis:   rt.diagnosis,
			Table:       rt.table,
			Contexts:    rt.contexts(),
			Metrics:     rt.metrics,
			Logger:      logger,
			TurnTimeout: rt.cfg.Server.TurnTimeout,
		})
		return srv.Run(ctx, rt.cfg.Server.Addr, rt.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config server.addr)")
}
