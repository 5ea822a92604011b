package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/internal/auth"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage budget owners",
}

var userAddCmd = &cobra.Command{
	Use:   "add <external-id>",
	Short: "Create or update a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userTokenCmd = &cobra.Command{
	Use:   "token <external-id>",
	Short: "Issue an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserToken,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userTokenCmd)

	userAddCmd.Flags().String("email", "", "Notification email address")
	userAddCmd.Flags().String("name", "", "Display name used in emails")

	userTokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u := &model.User{ExternalID: args[0], Email: email, Name: name}
		if err := a.store.UpsertUser(ctx, u); err != nil {
			return err
		}
		fmt.Printf("User %s saved (id %s)\n", u.ExternalID, u.ID)
		if u.Email == "" {
			fmt.Println("  No email set; alerts and summaries will be skipped.")
		}
		return nil
	})
}

func runUserToken(cmd *cobra.Command, args []string) error {
	ttl, _ := cmd.Flags().GetDuration("ttl")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if a.cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret must be set to issue tokens")
		}
		if _, err := a.store.FindUserByExternalID(ctx, args[0]); err != nil {
			return err
		}
		token, err := auth.NewTokens(a.cfg.Auth.JWTSecret).Issue(args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	})
}
