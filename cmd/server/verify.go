package main

import (
	"encoding/json"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"regverify/internal/platform/config"
	"regverify/internal/platform/logger"
	"regverify/internal/registration/models"
	"regverify/internal/registration/service"
	"regverify/pkg/requestcontext"
)

func verifyCmd(configPath *string) *cobra.Command {
	var raw service.RawRequest

	cmd := &cobra.Command{
		Use:   "verify <registration-number>",
		Short: "Verify one registration number and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logger.NewWithWriter(os.Stderr, cfg.Log)

			a, err := buildApp(ctx, cfg, log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()

			raw.RegistrationNumber = args[0]
			var result *models.VerificationResult
			req, err := service.ParseRequest(raw)
			if err != nil {
				result = service.RejectInput(err.Error())
			} else {
				result = a.service.Verify(requestcontext.WithRequestID(ctx, "cli"), req)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&raw.Jurisdiction, "jurisdiction", "j", "", "jurisdiction name or code (default Maharashtra)")
	cmd.Flags().StringVar(&raw.Category, "category", "", "builder, project or agent (default builder)")
	cmd.Flags().StringVar(&raw.OwnerReference, "owner", "", "owning entity reference")
	cmd.Flags().BoolVar(&raw.ForceRefresh, "force", false, "bypass the registration cache")
	return cmd
}
