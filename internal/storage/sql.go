package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_runs_site_time ON runs (site, data_time);
CREATE INDEX IF NOT EXISTS idx_radials_cell ON radials (run_id, sprc, bear);`

	insertRunSQL = `
INSERT INTO runs (
                  site,
                  data_time,
                  sources,
                  output_file,
                  policy,
                  bearing_spread,
                  qc_enabled,
                  input_rows,
                  good_rows,
                  cells,
                  empty_cells,
                  checksum,
                  config)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRunColumns = `
SELECT
    id,
    created_at,
    site,
    data_time,
    sources,
    output_file,
    policy,
    bearing_spread,
    qc_enabled,
    input_rows,
    good_rows,
    cells,
    empty_cells,
    checksum,
    config
FROM runs`

	selectRunSQL = selectRunColumns + `
WHERE
    id = ?`

	selectRunsSQL = selectRunColumns + `
ORDER BY data_time, id`

	insertRadialSQL = `
INSERT INTO radials (
                     run_id,
                     row_num,
                     lond,
                     latd,
                     velu,
                     velv,
                     vflg,
                     espc,
                     maxv,
                     minv,
                     edvc,
                     ersc,
                     xdst,
                     ydst,
                     rnge,
                     bear,
                     velo,
                     head,
                     sprc)
VALUES `

	radialValuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	selectRadialsSQL = `
SELECT
    lond,
    latd,
    velu,
    velv,
    vflg,
    espc,
    maxv,
    minv,
    edvc,
    ersc,
    xdst,
    ydst,
    rnge,
    bear,
    velo,
    head,
    sprc
FROM radials
WHERE
    run_id = ?
    AND (sprc IS NULL OR sprc BETWEEN ? AND ?)
    AND (bear IS NULL OR bear BETWEEN ? AND ?)
ORDER BY row_num`
)
