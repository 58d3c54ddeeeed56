package cli

import (
	"github.com/dgallion1/docgraph/internal/api"
	"github.com/dgallion1/docgraph/internal/config"
	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the parse API. Configuration comes from the environment
(PORT, DOCGRAPH_API_KEY, WORKER_COUNT, PATHSTORE_URL, ...).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return api.Run(cmd.Context(), cfg, root.logger())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	return cmd
}
