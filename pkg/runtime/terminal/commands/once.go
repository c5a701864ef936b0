package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/flow-atlas/pkg/adapters"
	"github.com/de-tools/flow-atlas/pkg/models/api"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/flow-atlas/pkg/services/monitor"
)

type OnceCmd struct {
	weekly   bool
	open     Opener
	reporter *export.Reporter
}

func NewOnceCmd(open Opener, reporter *export.Reporter) *cobra.Command {
	oc := &OnceCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Fetch, store and report traffic once",
		RunE:  oc.run,
	}

	cmd.Flags().BoolVar(&oc.weekly, "weekly", false, "Also send the weekly summary")

	return cmd
}

func (oc *OnceCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := oc.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.Monitor(ctx)
	if err != nil {
		return err
	}

	snapshot, err := m.Run(ctx, monitor.RunOptions{IncludeWeekly: oc.weekly})
	if err != nil {
		return fmt.Errorf("traffic run failed: %w", err)
	}

	date := m.Today()
	table := export.FlowTable{
		Date:   date,
		Weekly: make(map[string]int64, len(snapshot)),
	}
	totals := snapshot.Totals()
	table.Daily.Total = api.DailyTotal{
		Date:     date,
		TotalIn:  totals.DailyIn,
		TotalOut: totals.DailyOut,
		NetFlow:  totals.DailyNet,
	}
	for _, record := range adapters.MapSnapshotToLocationRecords(date, a.Catalog, snapshot) {
		table.Daily.Locations = append(table.Daily.Locations, adapters.MapLocationStoreToApi(record))
		table.Weekly[record.OrgLocation] = snapshot[domain.BranchID(record.OrgLocation)].WeeklyIn
	}

	return oc.reporter.HandleFlow(table)
}
