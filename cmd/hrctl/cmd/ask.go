package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askEmail string

func init() {
	askCmd.Flags().StringVar(&askEmail, "email", "", "caller email (or HRPROXY_EMAIL)")
	rootCmd.AddCommand(askCmd)
}

var (
	allowFmt = color.New(color.FgGreen, color.Bold).SprintFunc()
	denyFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	warnFmt  = color.New(color.FgYellow, color.Bold).SprintFunc()
	dimFmt   = color.New(color.Faint).SprintFunc()
)

// queryResult mirrors the proxy's /v1/query response. Result records arrive
// under masked_results and stay in token form.
type queryResult struct {
	RequestID     string           `json:"request_id"`
	Route         string           `json:"route"`
	Decision      string           `json:"decision"`
	Intent        string           `json:"intent"`
	ModifiedQuery string           `json:"modified_query"`
	PolicyQuery   string           `json:"policy_query"`
	Answer        string           `json:"answer"`
	MaskedRows    []map[string]any `json:"masked_results"`
	Message       string           `json:"message"`
	Error         string           `json:"error"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the HR proxy a question",
	Long: `Submit one question and print the routing, decision and answer.

Examples:
  hrctl ask --email jane@corp.example "What is my leave balance?"
  hrctl ask --email jane@corp.example -o json "List employees in APAC"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := requireServer()
		if err != nil {
			return err
		}
		email := askEmail
		if email == "" {
			email = os.Getenv("HRPROXY_EMAIL")
		}
		if email == "" {
			return fmt.Errorf("no caller email: pass --email or set HRPROXY_EMAIL")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 120*time.Second)
		defer cancel()

		payload, _ := json.Marshal(map[string]string{
			"email":    email,
			"question": args[0],
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/v1/query", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("proxy request failed: %w", err)
		}
		defer resp.Body.Close()

		var result queryResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if result.Error != "" {
			return fmt.Errorf("proxy: %s", result.Error)
		}

		if outputFormat != "table" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("Route:    %s\n", result.Route)
		if result.Decision != "" {
			fmt.Printf("Decision: %s\n", renderDecision(result.Decision))
			fmt.Printf("Intent:   %s\n", result.Intent)
			fmt.Printf("Query:    %s\n", dimFmt(result.ModifiedQuery))
		}
		if result.PolicyQuery != "" {
			fmt.Printf("Policy:   %s\n", dimFmt(result.PolicyQuery))
		}
		if result.Message != "" {
			fmt.Printf("\n%s\n", result.Message)
		}
		if result.Answer != "" {
			fmt.Printf("\n%s\n", result.Answer)
		}
		if len(result.MaskedRows) > 0 {
			fmt.Println()
			printRows(result.MaskedRows)
		}
		return nil
	},
}

func renderDecision(d string) string {
	switch d {
	case "Allowed":
		return allowFmt(d)
	case "NotAllowed":
		return denyFmt(d)
	default:
		return warnFmt(d)
	}
}

// printRows renders result records with a stable column order taken from the
// first row.
func printRows(rows []map[string]any) {
	var cols []string
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprintf(w, "%v", row[c])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
