/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/citetrack/apiserver/config"
	"github.com/citetrack/apiserver/internal/db"
	"github.com/citetrack/apiserver/internal/services"
	"github.com/citetrack/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	superuserEmail    string
	superuserPassword string
	superuserName     string
	superuserAgency   string
)

// createsuperuserCmd creates an admin account directly, without going
// through the HTTP surface. Admin accounts have no creation endpoint.
var createsuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an admin account",
	Long: `Create an admin account with staff and superuser capability.
The same email and password rules as HTTP account creation apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		accounts := services.NewAccountService(store.NewAccountRepository(dbConn))
		account, err := accounts.CreateSuperuser(cmd.Context(), services.NewAccountInput{
			Email:    superuserEmail,
			Password: superuserPassword,
			Name:     superuserName,
			Agency:   superuserAgency,
		})
		if err != nil {
			return fmt.Errorf("create superuser: %w", err)
		}

		fmt.Fprintf(os.Stdout, "created admin account %d (%s)\n", account.ID, account.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createsuperuserCmd)

	createsuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "account email (required)")
	createsuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "account password (required)")
	createsuperuserCmd.Flags().StringVar(&superuserName, "name", "", "display name")
	createsuperuserCmd.Flags().StringVar(&superuserAgency, "agency", "", "reporting agency")
	_ = createsuperuserCmd.MarkFlagRequired("email")
	_ = createsuperuserCmd.MarkFlagRequired("password")
}
