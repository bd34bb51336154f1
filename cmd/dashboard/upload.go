package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourorg/market-dashboard/internal/client"
	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/model"
)

func newUploadCmd(a *app) *cobra.Command {
	var monthly bool

	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a daily or monthly CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.DatasetDaily
			if monthly {
				kind = model.DatasetMonthly
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			result, err := client.NewUploader(a.apiClient()).Upload(ctx, args[0], kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s (%s)\n", info.Name(), dashboard.FormatFileSize(info.Size()))
			fmt.Fprintf(out, "Processed %d records\n", result.RecordsProcessed)
			fmt.Fprintf(out, "Date range: %s to %s\n",
				result.DateRange.Start.ValueOrZero(),
				result.DateRange.End.ValueOrZero())
			if kind == model.DatasetMonthly {
				fmt.Fprintf(out, "Period: %s\n", dashboard.PeriodYears(result.DateRange))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&monthly, "monthly", false, "upload to the monthly dataset")
	return cmd
}
