package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// toNullFloat stores NaN as NULL, SQLite has no NaN.
func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// toConfigString accepts a string, []byte or any JSON serializable value.
func toConfigString(config any) (configData sql.NullString, err error) {
	if config == nil {
		return
	}

	switch c := config.(type) {
	case string:
		configData.Valid = true
		configData.String = c

	case []byte:
		configData.Valid = true
		configData.String = string(c)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}

		configData.Valid = true
		configData.String = string(p)
	}
	return
}

func toRunData(r *Run, config any) (*runData, error) {
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return nil, fmt.Errorf("marshaling sources: %w", err)
	}

	configData, err := toConfigString(config)
	if err != nil {
		return nil, err
	}

	return &runData{
		Site:          r.Site,
		DataTime:      toNullTime(r.DataTime),
		Sources:       string(sources),
		OutputFile:    toNullString(r.OutputFile),
		Policy:        r.Policy,
		BearingSpread: r.BearingSpread,
		QC:            r.QC,
		InputRows:     r.InputRows,
		GoodRows:      r.GoodRows,
		Cells:         r.Cells,
		EmptyCells:    r.EmptyCells,
		Checksum:      int64(r.Checksum), // bit pattern kept, SQLite integers are signed
		Config:        configData,
	}, nil
}

func fromRunData(d *runData) (*Run, error) {
	r := Run{
		ID:            d.ID,
		CreatedAt:     d.CreatedAt,
		Site:          d.Site,
		OutputFile:    d.OutputFile.String,
		Policy:        d.Policy,
		BearingSpread: d.BearingSpread,
		QC:            d.QC,
		InputRows:     d.InputRows,
		GoodRows:      d.GoodRows,
		Cells:         d.Cells,
		EmptyCells:    d.EmptyCells,
		Checksum:      uint64(d.Checksum),
	}
	if d.DataTime.Valid {
		r.DataTime = d.DataTime.Time
	}
	if d.Config.Valid {
		r.Config = &d.Config.String
	}
	if err := json.Unmarshal([]byte(d.Sources), &r.Sources); err != nil {
		return nil, fmt.Errorf("unmarshaling sources: %w", err)
	}
	return &r, nil
}

func fromRadialData(d *radialData) Radial {
	return Radial{
		Longitude:    fromNullFloat(d.Longitude),
		Latitude:     fromNullFloat(d.Latitude),
		U:            fromNullFloat(d.U),
		V:            fromNullFloat(d.V),
		Flag:         fromNullFloat(d.Flag),
		StdDev:       fromNullFloat(d.StdDev),
		Max:          fromNullFloat(d.Max),
		Min:          fromNullFloat(d.Min),
		Count:        fromNullFloat(d.Count),
		SpectraCount: fromNullFloat(d.SpectraCount),
		X:            fromNullFloat(d.X),
		Y:            fromNullFloat(d.Y),
		Range:        fromNullFloat(d.Range),
		Bearing:      fromNullFloat(d.Bearing),
		Velocity:     fromNullFloat(d.Velocity),
		Heading:      fromNullFloat(d.Heading),
		RangeCell:    fromNullFloat(d.RangeCell),
	}
}
