package api

type RangeTotal struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	TotalIn int64  `json:"total_in"`
}

type DailyTotal struct {
	Date     string `json:"date"`
	TotalIn  int64  `json:"total_in"`
	TotalOut int64  `json:"total_out"`
	NetFlow  int64  `json:"net_flow"`
}

type LocationFlow struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	DailyIn  int64  `json:"daily_in"`
	DailyOut int64  `json:"daily_out"`
	NetFlow  int64  `json:"net_flow"`
}

type DailyFlow struct {
	Total     DailyTotal     `json:"total"`
	Locations []LocationFlow `json:"locations"`
}

type Error struct {
	Error string `json:"error"`
}
