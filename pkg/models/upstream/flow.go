// Package upstream holds the wire shapes of the visitor statistics API.
package upstream

// FlowRequest is the body posted to GetBigFlowByLocations
type FlowRequest struct {
	OrgLocations []string `json:"orgLocations"`
}

// FlowEnvelope is the response of GetBigFlowByLocations.
// A nil IsSuccess or Data means the field was absent (or null) on the wire.
type FlowEnvelope struct {
	IsSuccess *bool          `json:"isSuccess"`
	Data      []LocationFlow `json:"data"`
}

type LocationFlow struct {
	OrgLocation     string      `json:"orgLocation"`
	OrgLocationName string      `json:"orgLocationName"`
	FCount          []FlowCount `json:"fCount"`
}

// FlowCount is one counter; CountType is "日" (day) or "周" (week),
// DateType is 0 (entries) or 1 (exits)
type FlowCount struct {
	CountType   string `json:"countType"`
	DateType    *int   `json:"dateType"`
	PersonCount *int64 `json:"personCount"`
}
