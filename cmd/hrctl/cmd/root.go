// Package cmd implements the hrctl CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	serverURL    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "hrctl",
	Short: "CLI for the HR query proxy",
	Long: `hrctl talks to a running HR query proxy.

It submits natural-language questions on behalf of an employee and
renders the routing, access decision and answer.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "proxy base URL (or HRPROXY_URL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table|json")
}

// requireServer resolves the proxy URL from the flag or HRPROXY_URL.
func requireServer() (string, error) {
	url := serverURL
	if url == "" {
		url = os.Getenv("HRPROXY_URL")
	}
	if url == "" {
		return "", fmt.Errorf("no server configured: pass --server or set HRPROXY_URL")
	}
	return strings.TrimRight(url, "/"), nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
