package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/flow-atlas/pkg/models/domain"
)

type RecordCmd struct {
	date    string
	totalIn int64
	open    Opener
	output  io.Writer
}

func NewRecordCmd(open Opener, output io.Writer) *cobra.Command {
	rc := &RecordCmd{open: open, output: output}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Write a totals-only entry count for one day",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.date, "date", "", "Day (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&rc.totalIn, "in", 0, "Entries for the day")

	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func (rc *RecordCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if _, err := time.Parse(domain.DateLayout, rc.date); err != nil {
		return fmt.Errorf("invalid date %q. Expected format: YYYY-MM-DD", rc.date)
	}
	if rc.totalIn < 0 {
		return fmt.Errorf("entries cannot be negative")
	}

	a, err := rc.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Traffic.UpsertDailyTotal(ctx, rc.date, rc.totalIn); err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.output, "recorded %d entries for %s\n", rc.totalIn, rc.date)
	return err
}
