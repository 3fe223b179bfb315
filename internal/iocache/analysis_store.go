package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/schema"
)

// Table names for run tracking.
const (
	analysisRunsTable = "defectset_runs"
	datasetRowsTable  = "defectset_dataset_rows"
)

// datasetRowColumns is the column order of inserts into datasetRowsTable.
const datasetRowColumns = "analysis_id, file_path, project, version, loc_added, loc_deleted, loc_touched, churn, nr, nfix, nauth, buggy"

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the run tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{analysisRunsTable, getCreateAnalysisRunsQuery(backend)},
		{datasetRowsTable, getCreateDatasetRowsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for defectset_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				buggy_files INT NOT NULL DEFAULT 0,
				cutoff DATETIME(6),
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				project TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				buggy_files INT NOT NULL DEFAULT 0,
				cutoff TIMESTAMPTZ,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				project TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_files INTEGER NOT NULL DEFAULT 0,
				buggy_files INTEGER NOT NULL DEFAULT 0,
				cutoff TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateDatasetRowsQuery returns the CREATE TABLE query for defectset_dataset_rows.
func getCreateDatasetRowsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(datasetRowsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				file_path VARCHAR(512) NOT NULL,
				project VARCHAR(255) NOT NULL,
				version VARCHAR(255) NOT NULL,
				loc_added INT NOT NULL,
				loc_deleted INT NOT NULL,
				loc_touched INT NOT NULL,
				churn DOUBLE NOT NULL,
				nr INT NOT NULL,
				nfix INT NOT NULL,
				nauth INT NOT NULL,
				buggy BOOLEAN NOT NULL,
				PRIMARY KEY (analysis_id, file_path)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				file_path TEXT NOT NULL,
				project TEXT NOT NULL,
				version TEXT NOT NULL,
				loc_added INT NOT NULL,
				loc_deleted INT NOT NULL,
				loc_touched INT NOT NULL,
				churn DOUBLE PRECISION NOT NULL,
				nr INT NOT NULL,
				nfix INT NOT NULL,
				nauth INT NOT NULL,
				buggy BOOLEAN NOT NULL,
				PRIMARY KEY (analysis_id, file_path)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				project TEXT NOT NULL,
				version TEXT NOT NULL,
				loc_added INTEGER NOT NULL,
				loc_deleted INTEGER NOT NULL,
				loc_touched INTEGER NOT NULL,
				churn REAL NOT NULL,
				nr INTEGER NOT NULL,
				nfix INTEGER NOT NULL,
				nauth INTEGER NOT NULL,
				buggy INTEGER NOT NULL,
				PRIMARY KEY (analysis_id, file_path)
			);
		`, quotedTableName)
	}
}

// BeginAnalysis creates a new run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(project string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	args := []any{project, formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (project, start_time, config_params) VALUES ($1, $2, $3) RETURNING analysis_id`, quotedTableName)
		err = as.db.QueryRow(query, args...).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (project, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis records the completion data of a run.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, summary schema.RunSummary) error {
	if as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	var startTime nullableTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholders(as.backend, 1, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}
	durationMs := endTime.Sub(startTime.Time).Milliseconds()

	var updateQuery string
	if as.backend == schema.PostgreSQLBackend {
		updateQuery = `UPDATE %s SET end_time = $1, run_duration_ms = $2, total_files = $3, buggy_files = $4, cutoff = $5 WHERE analysis_id = $6`
	} else {
		updateQuery = `UPDATE %s SET end_time = ?, run_duration_ms = ?, total_files = ?, buggy_files = ?, cutoff = ? WHERE analysis_id = ?`
	}
	_, err := as.db.Exec(fmt.Sprintf(updateQuery, quotedTableName),
		formatTime(endTime, as.backend), durationMs, summary.Files, summary.BuggyFiles,
		formatTime(summary.Cutoff, as.backend), analysisID)
	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordDatasetRows stores the emitted rows of a run in one transaction.
func (as *AnalysisStoreImpl) RecordDatasetRows(analysisID int64, rows []schema.DatasetRow) error {
	if as.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(datasetRowsTable, as.backend), datasetRowColumns, placeholders(as.backend, 1, 12))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare dataset row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.Exec(analysisID, r.File, r.Project, r.Version, r.LOCAdded, r.LOCDeleted,
			r.LOCTouched, r.Churn, r.NR, r.NFix, r.NAuth, r.Buggy); err != nil {
			return fmt.Errorf("failed to insert dataset row %s: %w", r.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset rows: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRunTime, oldestRunTime nullableTime
		lastRunQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &lastRunTime); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastRunTime.Time

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(oldestRunQuery).Scan(&oldestRunTime); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime.Time
	}

	for _, table := range []string{analysisRunsTable, datasetRowsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRows = int(status.TableSizes[datasetRowsTable])
	return status, nil
}

// GetAllAnalysisRuns retrieves all runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, project, start_time, end_time, run_duration_ms,
		total_files, buggy_files, cutoff, config_params FROM %s ORDER BY analysis_id`,
		quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var start, end, cutoff nullableTime
		if err := rows.Scan(&record.AnalysisID, &record.Project, &start, &end, &record.RunDurationMs,
			&record.TotalFiles, &record.BuggyFiles, &cutoff, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		record.Cutoff = cutoff.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllDatasetRows retrieves all dataset rows from the store.
func (as *AnalysisStoreImpl) GetAllDatasetRows() ([]schema.DatasetRowRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, file_path`,
		datasetRowColumns, quoteTableName(datasetRowsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.DatasetRowRecord
	for rows.Next() {
		var r schema.DatasetRowRecord
		if err := rows.Scan(&r.AnalysisID, &r.File, &r.Project, &r.Version, &r.LOCAdded, &r.LOCDeleted,
			&r.LOCTouched, &r.Churn, &r.NR, &r.NFix, &r.NAuth, &r.Buggy); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset rows: %w", err)
	}
	return results, nil
}
