package cli

import (
	"context"
	"fmt"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve the task, completion and review API until interrupted, then drain requests and pending notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}
		if !c.Config.AuthEnabled() {
			return fmt.Errorf("RABOTIM_JWT_SECRET is required to serve the API")
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = c.Config.HTTPAddr
		}

		app := c.HTTP()
		go func() {
			if err := app.Listen(addr); err != nil {
				c.Logger.Error("http server stopped", "error", err)
			}
		}()
		c.Logger.Info("http server started", "addr", addr, "driver", c.Config.DBDriver)

		// One operation so the store closes only after requests drain.
		wait := gfshutdown.GracefulShutdown(context.Background(), c.Config.ShutdownTimeout, map[string]gfshutdown.Operation{
			"rabotim": func(ctx context.Context) error {
				c.Logger.Info("shutting down")
				if err := app.ShutdownWithContext(ctx); err != nil {
					c.Logger.Warn("http shutdown incomplete", "error", err)
				}
				return c.Close()
			},
		})

		if code := <-wait; code != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", code)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to RABOTIM_HTTP_ADDR)")
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return serveCmd
}
