package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/internal/api"
	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/viewstate"
)

// apiKeyPrefix keeps API view state apart from the CLI's in a shared cache.
const apiKeyPrefix = "api:"

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		trustProxy bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hierarchy over HTTP",
		Long: `Serve the hierarchy over HTTP.

Endpoints: GET /healthz, GET /locations, GET /tree, POST /tree/toggle,
DELETE /tree/state, POST /moves/check, POST /moves and POST /drops. Each
client's tree view is saved under the X-Placetree-Client header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			svc, st, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			cc, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()
			views := viewstate.NewStore(cc, cache.NewScopedKeyer(nil, apiKeyPrefix), c.cfg.Cache.TTL)

			srv := api.New(api.Options{
				Service:     svc,
				Views:       views,
				Logger:      c.Logger,
				CORSOrigins: c.cfg.Server.CORSOrigins,
				RateLimit: api.RateLimit{
					RPS:   c.cfg.Server.RateLimit.RPS,
					Burst: c.cfg.Server.RateLimit.Burst,
				},
				TrustProxy: trustProxy,
			})
			c.Logger.Info("serving locations",
				"store", c.storeLabel(),
				"backend", c.cfg.Store.Backend,
				"cache", c.cfg.Cache.Backend)
			printSuccess("Listening on %s", StyleLink.Render(serveURL(addr)))
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&trustProxy, "trust-proxy", false, "take client addresses from X-Forwarded-For")
	return cmd
}

// serveURL turns a listen address into a URL for display.
func serveURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
