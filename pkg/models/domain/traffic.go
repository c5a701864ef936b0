package domain

// CountKind is the window an upstream counter covers
type CountKind int

const (
	CountKindDay CountKind = iota + 1
	CountKindWeek
)

func (k CountKind) String() string {
	switch k {
	case CountKindDay:
		return "day"
	case CountKindWeek:
		return "week"
	default:
		return "unknown"
	}
}

// Direction tells whether a counter measures entries or exits
type Direction int

const (
	DirectionIn Direction = iota + 1
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// PeriodCount is a single upstream counter for one branch
type PeriodCount struct {
	Kind      CountKind
	Direction Direction
	Count     int64
}

// BranchFlowSummary holds the daily and weekly flow of one branch.
// NetFlow and WeeklyNet are always derived from the in/out counts.
type BranchFlowSummary struct {
	Name      string
	DailyIn   int64
	DailyOut  int64
	NetFlow   int64
	WeeklyIn  int64
	WeeklyOut int64
	WeeklyNet int64
}

// SummarizeCounts folds the counters of a branch into a summary.
// When the same (kind, direction) pair appears more than once the last one wins;
// absent pairs stay at zero.
func SummarizeCounts(name string, counts []PeriodCount) BranchFlowSummary {
	summary := BranchFlowSummary{Name: name}

	for _, c := range counts {
		switch {
		case c.Kind == CountKindDay && c.Direction == DirectionIn:
			summary.DailyIn = c.Count
		case c.Kind == CountKindDay && c.Direction == DirectionOut:
			summary.DailyOut = c.Count
		case c.Kind == CountKindWeek && c.Direction == DirectionIn:
			summary.WeeklyIn = c.Count
		case c.Kind == CountKindWeek && c.Direction == DirectionOut:
			summary.WeeklyOut = c.Count
		}
	}

	summary.NetFlow = summary.DailyIn - summary.DailyOut
	summary.WeeklyNet = summary.WeeklyIn - summary.WeeklyOut
	return summary
}

// FlowSnapshot is the result of one fetch-and-parse cycle keyed by branch
type FlowSnapshot map[BranchID]BranchFlowSummary

type FlowTotals struct {
	DailyIn   int64
	DailyOut  int64
	DailyNet  int64
	WeeklyIn  int64
	WeeklyOut int64
	WeeklyNet int64
}

func (s FlowSnapshot) Totals() FlowTotals {
	var t FlowTotals
	for _, summary := range s {
		t.DailyIn += summary.DailyIn
		t.DailyOut += summary.DailyOut
		t.WeeklyIn += summary.WeeklyIn
		t.WeeklyOut += summary.WeeklyOut
	}
	t.DailyNet = t.DailyIn - t.DailyOut
	t.WeeklyNet = t.WeeklyIn - t.WeeklyOut
	return t
}
