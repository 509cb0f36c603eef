package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func mustToken() (string, error) {
	token, err := readToken(tokenPath)
	if err != nil {
		return "", fmt.Errorf("token not found, please login: %w", err)
	}
	return token, nil
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show the server's portal cache state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := mustToken()
		if err != nil {
			return err
		}
		return getJSON(cmd, "/admin/cache", nil, token)
	},
}

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached portal data so the next request refetches it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := mustToken()
		if err != nil {
			return err
		}
		var out any
		if err := doJSON(cmd.Context(), client, http.MethodPost, endpoint(baseURL, "/admin/cache/invalidate", nil), token, nil, &out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored portal snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := mustToken()
		if err != nil {
			return err
		}
		return getJSON(cmd, "/admin/snapshots", nil, token)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd, invalidateCmd, snapshotsCmd)
}
