package commands

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/printer"
	"github.com/MikeSquared-Agency/weave/internal/session"
)

var sessionUser string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Issue or revoke API session tokens",
}

var sessionIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a session token for a user",
	RunE:  runSessionIssue,
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRevoke,
}

func init() {
	sessionIssueCmd.Flags().StringVar(&sessionUser, "user", "", "user id (uuid)")
	_ = sessionIssueCmd.MarkFlagRequired("user")

	sessionCmd.AddCommand(sessionIssueCmd, sessionRevokeCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionIssue(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(sessionUser)
	if err != nil {
		return printer.Error("Invalid user id", err.Error(), []string{"Pass a UUID to --user"})
	}

	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	rdb, err := newRedis(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	token, err := session.NewRedisStore(rdb, session.DefaultTTL).Issue(cmd.Context(), userID)
	if err != nil {
		return printer.Error("Failed to issue session", err.Error(), nil)
	}

	printer.Info("%s\n", token)
	return nil
}

func runSessionRevoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	rdb, err := newRedis(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := session.NewRedisStore(rdb, session.DefaultTTL).Revoke(cmd.Context(), args[0]); err != nil {
		return printer.Error("Failed to revoke session", err.Error(), nil)
	}

	printer.Success("session revoked\n")
	return nil
}
