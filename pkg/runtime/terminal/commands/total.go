package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/flow-atlas/pkg/adapters"
	"github.com/de-tools/flow-atlas/pkg/models/api"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/runtime/terminal/export"
)

type TotalCmd struct {
	start    string
	end      string
	open     Opener
	reporter *export.Reporter
}

func NewTotalCmd(open Opener, reporter *export.Reporter) *cobra.Command {
	tc := &TotalCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Sum stored entries over an inclusive date range",
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tc.end, "end", "", "Last day (YYYY-MM-DD), defaults to --start")

	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func (tc *TotalCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	end := tc.end
	if end == "" {
		end = tc.start
	}
	for _, d := range []string{tc.start, end} {
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			return fmt.Errorf("invalid date %q. Expected format: YYYY-MM-DD", d)
		}
	}

	a, err := tc.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	total, err := a.Traffic.SumTotalsBetween(ctx, tc.start, end)
	if err != nil {
		return err
	}
	days, err := a.Traffic.ListTotals(ctx, tc.start, end)
	if err != nil {
		return err
	}

	table := export.TotalsTable{
		Range: api.RangeTotal{Start: tc.start, End: end, TotalIn: total},
		Days:  make([]api.DailyTotal, 0, len(days)),
	}
	for _, d := range days {
		table.Days = append(table.Days, adapters.MapDailyTotalStoreToApi(d))
	}
	return tc.reporter.HandleTotals(table)
}
