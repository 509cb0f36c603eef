package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"cellhub/internal/auth"
)

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Get an operator token and store it locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("CELLHUB_PASSWORD")
		}
		if loginUser == "" || password == "" {
			return errors.New("username and password are required")
		}

		var resp tokenData
		payload := map[string]string{"username": loginUser, "password": password}
		if err := doJSON(cmd.Context(), client, http.MethodPost, endpoint(baseURL, "/auth/token", nil), "", payload, &resp); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := saveToken(tokenPath, resp); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in, token expires %s\n", resp.ExpiresAt)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored token and remove it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if token, err := readToken(tokenPath); err == nil {
			// the local copy goes away even if the server has already forgotten it
			if err := doJSON(cmd.Context(), client, http.MethodPost, endpoint(baseURL, "/auth/logout", nil), token, nil, nil); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout: %v\n", err)
			}
		}
		if err := clearToken(tokenPath); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for CELLHUB_OPERATOR_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "operator", "operator username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "operator password (or CELLHUB_PASSWORD)")

	rootCmd.AddCommand(loginCmd, logoutCmd, hashPasswordCmd)
}
