package storage

import (
	"database/sql"
	"time"
)

type runData struct {
	ID            int64
	CreatedAt     time.Time
	Site          string
	DataTime      sql.NullTime
	Sources       string
	OutputFile    sql.NullString
	Policy        string
	BearingSpread float64
	QC            bool
	InputRows     int
	GoodRows      int
	Cells         int
	EmptyCells    int
	Checksum      int64
	Config        sql.NullString
}

type radialData struct {
	Longitude    sql.NullFloat64
	Latitude     sql.NullFloat64
	U            sql.NullFloat64
	V            sql.NullFloat64
	Flag         sql.NullFloat64
	StdDev       sql.NullFloat64
	Max          sql.NullFloat64
	Min          sql.NullFloat64
	Count        sql.NullFloat64
	SpectraCount sql.NullFloat64
	X            sql.NullFloat64
	Y            sql.NullFloat64
	Range        sql.NullFloat64
	Bearing      sql.NullFloat64
	Velocity     sql.NullFloat64
	Heading      sql.NullFloat64
	RangeCell    sql.NullFloat64
}
