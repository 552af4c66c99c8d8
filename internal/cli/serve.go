package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/qbay/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until interrupted.

Settings come from defaults, then --config, then the PORT, DB_PATH,
JWT_SECRET, LOG_LEVEL and LOG_FORMAT environment variables, then flags.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := cfg.Log.NewLogger(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := ensureDBDir(cfg.Database.Path); err != nil {
			return err
		}

		srv, err := server.New(cfg, logger)
		if err != nil {
			logger.Error("failed to create server", slog.String("error", err.Error()))
			return err
		}
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	serveCmd.Flags().String("db", "", "path to the SQLite database file")
	rootCmd.AddCommand(serveCmd)
}
