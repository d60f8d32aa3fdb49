package alerting

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/meridianiot/meridian/apps/cli/root"
)

var apiURL string

func client() *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(2 * time.Minute)
}

var alertingCmd = &cobra.Command{
	Use:   "alerting",
	Short: "Per-tenant alerting job lifecycle",
}

// call issues one alerting endpoint request and prints the job model.
func call(method, path string) error {
	req := client().R()

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case "POST":
		resp, err = req.Post(path)
	case "DELETE":
		resp, err = req.Delete(path)
	default:
		resp, err = req.Get(path)
	}
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("api returned %s: %s", resp.Status(), resp.String())
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func simple(use, short, method, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(method, "/api/v1/tenants/"+args[0]+"/alerting"+suffix)
		},
	}
}

func init() {
	alertingCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("MERIDIAN_API_URL", "http://localhost:3000"), "tenant API base URL")

	alertingCmd.AddCommand(
		simple("add", "Create the tenant's alerting job", "POST", ""),
		simple("remove", "Delete the tenant's alerting job", "DELETE", ""),
		simple("status", "Show the alerting job state", "GET", ""),
		simple("start", "Start the alerting job", "POST", "/start"),
		simple("stop", "Stop the alerting job", "POST", "/stop"),
	)
	root.Root().AddCommand(alertingCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
