package events

import (
	"context"
)

// TopicSnapshotStored is published after a run persisted the day's counts
const TopicSnapshotStored = "flow.snapshot.stored"

type LocationCount struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	DailyIn  int64  `json:"daily_in"`
	DailyOut int64  `json:"daily_out"`
	NetFlow  int64  `json:"net_flow"`
}

type SnapshotStored struct {
	Date      string          `json:"date"`
	TotalIn   int64           `json:"total_in"`
	TotalOut  int64           `json:"total_out"`
	NetFlow   int64           `json:"net_flow"`
	Locations []LocationCount `json:"locations"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
