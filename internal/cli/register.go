package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/qbay/internal/auth"
	sqliteRepo "github.com/sakif/qbay/internal/repository/sqlite"
	"github.com/sakif/qbay/internal/service"
)

var (
	registerName     string
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account directly in the database",
	Long: `Create an account directly in the database, applying the same rules as
POST /api/register. Useful for seeding an instance before it is exposed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Database.Path == "" {
			return errors.New("database path is required")
		}
		if err := ensureDBDir(cfg.Database.Path); err != nil {
			return err
		}

		db, err := sqliteRepo.New(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		// Command output is the confirmation line; service logs are dropped.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		accounts := service.NewAccountService(db, auth.NewPasswordService(cfg.Auth.BcryptCost), logger)

		user, err := accounts.Register(cmd.Context(), registerName, registerEmail, registerPassword)
		if err != nil {
			return err
		}

		cmd.Printf("registered %s <%s> with id %s\n", user.Username, user.Email, user.ID)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "username (3-19 letters, digits or spaces)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address used to log in")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "password (6+ chars with upper, lower and punctuation)")
	registerCmd.Flags().String("db", "", "path to the SQLite database file")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(registerCmd)
}
