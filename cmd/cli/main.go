package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cellhub/pkg/logutils"
)

const defaultBaseURL = "http://localhost:8080"

var (
	baseURL   string
	tokenPath string
	client    = &http.Client{Timeout: 15 * time.Second}
)

var rootCmd = &cobra.Command{
	Use:           "cellhub",
	Short:         "Browse portal collections and datasets through a cellhub server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", envOr("CELLHUB_SERVER", defaultBaseURL), "cellhub API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token", defaultTokenPath(), "token file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logutils.Log.Error(err)
		os.Exit(1)
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
