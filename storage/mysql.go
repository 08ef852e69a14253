package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/mapper"
)

// MySQLStorage persists readings to MySQL.
type MySQLStorage struct {
	db       *sql.DB
	dsn      string
	database string
}

// NewMySQLStorage connects, creating the database and tables if needed.
func NewMySQLStorage(dsn string) (*MySQLStorage, error) {
	database, serverDSN, err := parseMySQLDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %v", err)
	}

	// Connect to the server first, without selecting a database, so the
	// database can be created on a fresh install.
	serverDB, err := sql.Open("mysql", serverDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL server: %v", err)
	}
	defer serverDB.Close()

	_, err = serverDB.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", database))
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL connection test failed: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	storage := &MySQLStorage{
		db:       db,
		dsn:      dsn,
		database: database,
	}

	if err := storage.InitDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize MySQL database: %v", err)
	}

	logger.Info("MySQL storage initialized")
	return storage, nil
}

// parseMySQLDSN extracts the database name and a server-only DSN.
func parseMySQLDSN(dsn string) (database string, serverDSN string, err error) {
	parts := strings.Split(dsn, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid DSN, cannot extract database name")
	}

	dbParts := strings.Split(parts[len(parts)-1], "?")
	database = dbParts[0]

	serverDSN = strings.Join(parts[:len(parts)-1], "/") + "/"
	if len(dbParts) > 1 {
		serverDSN += "?" + dbParts[1]
	}

	return database, serverDSN, nil
}

// InitDatabase creates the reading tables.
func (ms *MySQLStorage) InitDatabase() error {
	readingTableSQL := `
	CREATE TABLE IF NOT EXISTS modbus_readings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		device VARCHAR(255) NOT NULL,
		unit_id SMALLINT UNSIGNED NOT NULL,
		function_code SMALLINT UNSIGNED NOT NULL,
		timestamp BIGINT NOT NULL,
		crc_ok BOOLEAN NOT NULL,
		registers JSON,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_device (device),
		INDEX idx_unit_id (unit_id),
		INDEX idx_timestamp (timestamp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	valueTableSQL := `
	CREATE TABLE IF NOT EXISTS reading_values (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		reading_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		value DOUBLE NOT NULL,
		FOREIGN KEY (reading_id) REFERENCES modbus_readings(id) ON DELETE CASCADE,
		INDEX idx_reading_id (reading_id),
		INDEX idx_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := ms.db.Exec(readingTableSQL); err != nil {
		return fmt.Errorf("failed to create readings table: %v", err)
	}
	if _, err := ms.db.Exec(valueTableSQL); err != nil {
		return fmt.Errorf("failed to create values table: %v", err)
	}

	return nil
}

// Store writes one reading and its mapped values in a transaction.
func (ms *MySQLStorage) Store(device string, reading mapper.Reading) error {
	tx, err := ms.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			logger.Error("MySQL transaction rolled back: %v", err)
		}
	}()

	registersJSON, err := json.Marshal(reading.Registers)
	if err != nil {
		return fmt.Errorf("failed to serialize registers: %v", err)
	}

	readingSQL := `INSERT INTO modbus_readings (device, unit_id, function_code, timestamp, crc_ok, registers) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.Exec(readingSQL, device, reading.UnitID, reading.FunctionCode, reading.Timestamp, reading.CRCOK, registersJSON)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %v", err)
	}

	readingID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %v", err)
	}

	if len(reading.Values) > 0 {
		valueStrings := make([]string, 0, len(reading.Values))
		valueArgs := make([]interface{}, 0, len(reading.Values)*3)

		for name, value := range reading.Values {
			valueStrings = append(valueStrings, "(?, ?, ?)")
			valueArgs = append(valueArgs, readingID, name, value)
		}

		valueSQL := fmt.Sprintf("INSERT INTO reading_values (reading_id, name, value) VALUES %s",
			strings.Join(valueStrings, ","))

		if _, err = tx.Exec(valueSQL, valueArgs...); err != nil {
			return fmt.Errorf("failed to insert reading values: %v", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	logger.Debug("stored reading for %s to MySQL", device)
	return nil
}

// Close closes the database connection.
func (ms *MySQLStorage) Close() error {
	if ms.db != nil {
		if err := ms.db.Close(); err != nil {
			return fmt.Errorf("failed to close MySQL connection: %v", err)
		}
		logger.Info("MySQL connection closed")
	}
	return nil
}
