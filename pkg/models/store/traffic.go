package store

type DailyLocationRecord struct {
	Date        string `db:"date"`
	OrgLocation string `db:"org_location"`
	OrgName     string `db:"org_name"`
	DailyIn     int64  `db:"daily_in"`
	DailyOut    int64  `db:"daily_out"`
	NetFlow     int64  `db:"net_flow"`
	CreatedAt   string `db:"created_at"`
}

type DailyTotalRecord struct {
	Date      string `db:"date"`
	TotalIn   int64  `db:"total_in"`
	TotalOut  int64  `db:"total_out"`
	NetFlow   int64  `db:"net_flow"`
	CreatedAt string `db:"created_at"`
}
