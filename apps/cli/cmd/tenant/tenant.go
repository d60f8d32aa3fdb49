package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/meridianiot/meridian/apps/cli/root"
	tenantsservice "github.com/meridianiot/meridian/domains/tenants/be/service"
)

var (
	apiURL string
	userID string
)

func client() *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(2 * time.Minute).
		SetHeader("X-User-Id", userID)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func apiError(resp *resty.Response) error {
	return fmt.Errorf("api returned %s: %s", resp.Status(), resp.String())
}

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Tenant lifecycle operations",
}

var createCmd = &cobra.Command{
	Use:   "create [tenant-id]",
	Short: "Provision a new tenant (id generated when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID := uuid.NewString()
		if len(args) == 1 {
			tenantID = args[0]
		}

		var out map[string]any
		resp, err := client().R().
			SetBody(map[string]string{"tenantId": tenantID}).
			SetResult(&out).
			Post("/api/v1/tenants")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return apiError(resp)
		}
		printJSON(out)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <tenant-id>",
	Short: "Show a tenant record and its readiness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out map[string]any
		resp, err := client().R().SetResult(&out).Get("/api/v1/tenants/" + args[0])
		if err != nil {
			return err
		}
		if resp.IsError() {
			return apiError(resp)
		}
		printJSON(out)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <tenant-id> <display-name>",
	Short: "Change a tenant's display name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out map[string]any
		resp, err := client().R().
			SetBody(map[string]string{"displayName": args[1]}).
			SetResult(&out).
			Patch("/api/v1/tenants/" + args[0])
		if err != nil {
			return err
		}
		if resp.IsError() {
			return apiError(resp)
		}
		printJSON(out)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <tenant-id>",
	Short: "Decommission a tenant and print the deletion ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		var ledger tenantsservice.DeletionLedger
		resp, err := client().R().
			SetQueryParam("ensureFullyDeployed", fmt.Sprint(!force)).
			SetResult(&ledger).
			Delete("/api/v1/tenants/" + args[0])
		if err != nil {
			return err
		}
		if resp.IsError() {
			return apiError(resp)
		}

		labels := make([]string, 0, len(ledger))
		for label := range ledger {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		failed := 0
		for _, label := range labels {
			mark := "ok"
			if !ledger[label] {
				mark = "FAILED"
				failed++
			}
			fmt.Printf("%-40s %s\n", label, mark)
		}
		if failed > 0 {
			return fmt.Errorf("%d teardown step(s) need manual reconciliation", failed)
		}
		return nil
	},
}

func init() {
	tenantCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("MERIDIAN_API_URL", "http://localhost:3000"), "tenant API base URL")
	tenantCmd.PersistentFlags().StringVar(&userID, "user", envOr("MERIDIAN_USER_ID", ""), "acting user id")
	deleteCmd.Flags().Bool("force", false, "delete even when provisioning has not completed")

	tenantCmd.AddCommand(createCmd, getCmd, renameCmd, deleteCmd)
	root.Root().AddCommand(tenantCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
