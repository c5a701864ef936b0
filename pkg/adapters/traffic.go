package adapters

import (
	"github.com/de-tools/flow-atlas/pkg/models/api"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/models/store"
)

// MapSnapshotToLocationRecords converts a snapshot into the rows stored for date,
// ordered as the catalog lists the branches
func MapSnapshotToLocationRecords(
	date string,
	catalog *domain.BranchCatalog,
	snapshot domain.FlowSnapshot,
) []store.DailyLocationRecord {
	records := make([]store.DailyLocationRecord, 0, len(snapshot))
	for _, id := range catalog.IDs() {
		summary, ok := snapshot[id]
		if !ok {
			continue
		}
		records = append(records, store.DailyLocationRecord{
			Date:        date,
			OrgLocation: string(id),
			OrgName:     summary.Name,
			DailyIn:     summary.DailyIn,
			DailyOut:    summary.DailyOut,
			NetFlow:     summary.DailyIn - summary.DailyOut,
		})
	}
	return records
}

func MapDailyTotalStoreToApi(record store.DailyTotalRecord) api.DailyTotal {
	return api.DailyTotal{
		Date:     record.Date,
		TotalIn:  record.TotalIn,
		TotalOut: record.TotalOut,
		NetFlow:  record.NetFlow,
	}
}

func MapLocationStoreToApi(record store.DailyLocationRecord) api.LocationFlow {
	return api.LocationFlow{
		Location: record.OrgLocation,
		Name:     record.OrgName,
		DailyIn:  record.DailyIn,
		DailyOut: record.DailyOut,
		NetFlow:  record.NetFlow,
	}
}
