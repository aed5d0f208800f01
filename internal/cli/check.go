package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/pkg/client"
)

func newCheckCmd(a *app, e *env.Environment) *cobra.Command {
	var baseURL, lang string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a deployment through the public API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				if e.Domain == "" {
					return fmt.Errorf("environment %s has no domain, pass --url", e.Name)
				}
				baseURL = "https://" + e.Domain
			}
			api := client.NewClient(client.Config{BaseURL: baseURL, Timeout: timeout})
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			health, err := api.Health(ctx)
			if err != nil {
				return fmt.Errorf("health check of %s failed: %w", baseURL, explain(err))
			}
			areas, err := api.ServiceAreas().List(ctx, &client.ListOptions{PageSize: 10, Lang: lang})
			if err != nil {
				return fmt.Errorf("listing service areas failed: %w", explain(err))
			}

			if a.outputFormat != "table" {
				return printOutput(out, a.outputFormat, map[string]interface{}{
					"url":           baseURL,
					"status":        health.Status,
					"version":       health.Version,
					"service_areas": areas.Count,
				})
			}

			fmt.Fprintf(out, "%s: %s (version %s)\n", baseURL, formatStatus(health.Status), health.Version)
			fmt.Fprintf(out, "Service areas: %d\n\n", areas.Count)

			table := NewTable(out, "ID", "NAME", "CHILDREN")
			for _, area := range areas.Results {
				table.AddRow(strconv.FormatInt(area.ID, 10), truncate(area.Name, 40), strconv.Itoa(len(area.Children)))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "API base URL (default https://<environment domain>)")
	cmd.Flags().StringVar(&lang, "lang", "en", "language of localized names: en, ar, fr")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

// explain adds an operator hint to API errors
func explain(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return err
	}
	switch {
	case apiErr.IsServerError():
		return fmt.Errorf("%w (the site is up but failing; check the application logs)", err)
	case apiErr.IsUnauthorized(), apiErr.IsForbidden():
		return fmt.Errorf("%w (public endpoints should not require credentials)", err)
	case apiErr.IsNotFound():
		return fmt.Errorf("%w (is the API served at this URL?)", err)
	case apiErr.IsValidationError():
		return fmt.Errorf("%w (check --lang)", err)
	}
	return err
}
