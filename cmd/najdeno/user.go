package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the administrator role to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], model.RoleAdmin)
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Revoke the administrator role from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], model.RoleStudent)
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		users, err := store.ListUsers(cmd.Context(), database)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Email, u.FullName, u.Role, u.CreatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

var userSignoutCmd = &cobra.Command{
	Use:   "signout <email>",
	Short: "Invalidate every session of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := store.GetUserByEmail(cmd.Context(), database, args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no account with email %s", args[0])
		}
		if err := store.RevokeUserTokens(cmd.Context(), database, user.ID, time.Now()); err != nil {
			return err
		}

		slog.Info("user signed out everywhere", "target_user", user.Email)
		fmt.Printf("all sessions of %s were revoked\n", user.Email)
		return nil
	},
}

var rotateSecretCmd = &cobra.Command{
	Use:   "rotate-secret",
	Short: "Replace the token signing secret, signing everyone out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		if _, err := store.RotateJWTSecret(cmd.Context(), database); err != nil {
			return err
		}
		slog.Warn("jwt secret rotated; restart the server to pick it up")
		fmt.Println("signing secret rotated, restart the server")
		return nil
	},
}

func init() {
	userCmd.AddCommand(userPromoteCmd)
	userCmd.AddCommand(userDemoteCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSignoutCmd)
}

func setRole(ctx context.Context, email, role string) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := store.GetUserByEmail(ctx, database, email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no account with email %s", email)
	}

	if _, err := store.UpdateUserRole(ctx, database, user.ID, role); err != nil {
		return err
	}

	slog.Info("user role updated", "target_user", user.Email, "new_role", role)
	fmt.Printf("%s is now %s\n", user.Email, role)
	return nil
}
