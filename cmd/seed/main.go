package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/importer"
	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Administrative data tools for the YaMDb API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(true)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.AddCommand(newAdminCmd(), newCSVCmd(), newCodeCmd())
	return root
}

func newAdminCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create a superuser (obtains tokens through signup with the same pair)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" {
				return fmt.Errorf("username and email are required (flags or ADMIN_USERNAME, ADMIN_EMAIL)")
			}

			cfg := config.LoadCLI()
			database.Connect(cfg)
			database.Migrate()

			users := repository.NewUserRepository(database.DB)
			existing, err := users.GetUserByEmail(email)
			if err != nil {
				return err
			}
			if existing != nil {
				logger.Log.Info("Admin user already exists",
					zap.String("username", existing.Username),
					zap.String("email", existing.Email),
				)
				return nil
			}

			admin := &models.User{
				Username:    username,
				Email:       email,
				Role:        models.RoleAdmin,
				IsSuperuser: true,
			}
			if err := users.CreateUser(admin); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			logger.Log.Info("Admin user created",
				zap.String("user_id", admin.ID.String()),
				zap.String("username", admin.Username),
				zap.String("email", admin.Email),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", os.Getenv("ADMIN_USERNAME"), "superuser username")
	cmd.Flags().StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "superuser email")
	return cmd
}

func newCSVCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Load the CSV fixture set (" + strings.Join(importer.Files(), ", ") + ")",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadCLI()
			database.Connect(cfg)
			database.Migrate()

			stats, err := importer.New(database.DB).LoadDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, file := range importer.Files() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d rows\n", file, stats[file])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "static/data", "directory holding the CSV files")
	return cmd
}

// newCodeCmd prints the newest confirmation code from the file outbox.
// Local development only; the redis and log backends keep no readable outbox.
func newCodeCmd() *cobra.Command {
	var email, outbox string

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Print the latest confirmation mail sent to an address (file mail backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if outbox == "" {
				outbox = config.LoadCLI().MailOutboxPath
			}

			messages, err := mailer.ReadOutbox(outbox)
			if err != nil {
				return err
			}
			for i := len(messages) - 1; i >= 0; i-- {
				if messages[i].To == email {
					fmt.Fprintln(cmd.OutOrStdout(), messages[i].Body)
					return nil
				}
			}
			return fmt.Errorf("no message sent to %s in %s", email, outbox)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "recipient address")
	cmd.Flags().StringVar(&outbox, "outbox", "", "outbox file (defaults to MAIL_OUTBOX_PATH)")
	return cmd
}
