package chamber

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"
)

const catalogSchema = `CREATE TABLE IF NOT EXISTS transport_tables (
	table_key    VARCHAR(255) NOT NULL PRIMARY KEY,
	id           VARCHAR(64)  NOT NULL,
	gas_key      VARCHAR(128) NOT NULL,
	temperature  DOUBLE       NOT NULL,
	pressure     DOUBLE       NOT NULL,
	grid_count   INT          NOT NULL,
	grid_min     DOUBLE       NOT NULL,
	grid_max     DOUBLE       NOT NULL,
	grid_log     INT          NOT NULL,
	collisions   INT          NOT NULL,
	path         VARCHAR(1024) NOT NULL,
	created_at   BIGINT       NOT NULL
)`

// CatalogEntry is one registered table file.
type CatalogEntry struct {
	TableKey    string  `db:"table_key"`
	ID          string  `db:"id"`
	GasKey      string  `db:"gas_key"`
	Temperature float64 `db:"temperature"`
	Pressure    float64 `db:"pressure"`
	GridCount   int     `db:"grid_count"`
	GridMin     float64 `db:"grid_min"`
	GridMax     float64 `db:"grid_max"`
	GridLog     int     `db:"grid_log"`
	Collisions  int     `db:"collisions"`
	Path        string  `db:"path"`
	CreatedAt   int64   `db:"created_at"`
}

func (e CatalogEntry) Key() TableKey {
	return TableKey{
		Gas:         e.GasKey,
		Temperature: e.Temperature,
		Pressure:    e.Pressure,
		Grid:        FieldGridConfig{Count: e.GridCount, Min: e.GridMin, Max: e.GridMax, Log: e.GridLog != 0},
		Collisions:  e.Collisions,
	}
}

// TableCatalog records where transport tables for each gas and grid live and
// keeps recently loaded tables in memory.
type TableCatalog struct {
	DB        *sqlx.DB
	cache     *cache.Cache
	logger    Logger
	verbosity int
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// ConnectToCatalog opens the catalog database described by cfg and makes
// sure its schema exists.
func ConnectToCatalog(cfg CatalogConfig, logger Logger, verbosity int) (*TableCatalog, error) {
	var db *sqlx.DB
	var err error
	switch cfg.Driver {
	case "mysql":
		db, err = ConnectToDatabase(cfg.User, cfg.Passwd, cfg.Host, cfg.DBName)
	case "sqlite":
		db, err = sqlx.Connect("sqlite", cfg.Path)
	default:
		return nil, invalidConfig("catalog.driver", "unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: catalog database: %v", ErrResourceUnavailable, err)
	}
	catalog := NewTableCatalog(db, logger, verbosity)
	if err := catalog.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return catalog, nil
}

func NewTableCatalog(db *sqlx.DB, logger Logger, verbosity int) *TableCatalog {
	return &TableCatalog{
		DB:        db,
		cache:     cache.New(30*time.Minute, 10*time.Minute),
		logger:    loggerOrDiscard(logger),
		verbosity: verbosity,
	}
}

func (c *TableCatalog) Close() error {
	return c.DB.Close()
}

func (c *TableCatalog) CreateSchema() error {
	if _, err := c.DB.Exec(catalogSchema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Register records table as stored at path, replacing any previous entry
// with the same key.
func (c *TableCatalog) Register(table *TransportTable, path string) error {
	key := table.Key
	gridLog := 0
	if key.Grid.Log {
		gridLog = 1
	}
	entry := CatalogEntry{
		TableKey:    key.String(),
		ID:          table.ID,
		GasKey:      key.Gas,
		Temperature: key.Temperature,
		Pressure:    key.Pressure,
		GridCount:   key.Grid.Count,
		GridMin:     key.Grid.Min,
		GridMax:     key.Grid.Max,
		GridLog:     gridLog,
		Collisions:  key.Collisions,
		Path:        path,
		CreatedAt:   time.Now().Unix(),
	}
	query := `REPLACE INTO transport_tables
		(table_key, id, gas_key, temperature, pressure, grid_count, grid_min, grid_max, grid_log, collisions, path, created_at)
		VALUES (:table_key, :id, :gas_key, :temperature, :pressure, :grid_count, :grid_min, :grid_max, :grid_log, :collisions, :path, :created_at)`
	if c.verbosity > 2 {
		c.logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	if _, err := c.DB.NamedExec(query, entry); err != nil {
		return fmt.Errorf("registering table %s: %w", entry.TableKey, err)
	}
	c.cache.Delete(entry.TableKey)
	if c.verbosity > 0 {
		c.logger.Info(fmt.Sprintf("Registered table %s at %s", entry.TableKey, path), "database")
	}
	return nil
}

func (c *TableCatalog) Lookup(key TableKey) (CatalogEntry, error) {
	var entry CatalogEntry
	query := c.DB.Rebind("SELECT * FROM transport_tables WHERE table_key = ?")
	err := c.DB.Get(&entry, query, key.String())
	if errors.Is(err, sql.ErrNoRows) {
		return entry, fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}
	if err != nil {
		return entry, fmt.Errorf("error querying database: %w", err)
	}
	return entry, nil
}

func (c *TableCatalog) List() ([]CatalogEntry, error) {
	rows, err := c.DB.Queryx("SELECT * FROM transport_tables ORDER BY gas_key, temperature, pressure")
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	entries := make([]CatalogEntry, 0)
	for rows.Next() {
		entry := CatalogEntry{}
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Load returns the table registered for key, reading it from disk on a
// cache miss. The file's own metadata must match key.
func (c *TableCatalog) Load(key TableKey) (*TransportTable, error) {
	if cached, ok := c.cache.Get(key.String()); ok {
		return cached.(*TransportTable), nil
	}
	entry, err := c.Lookup(key)
	if err != nil {
		return nil, err
	}
	table, err := ReadTransportTable(entry.Path, &key)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key.String(), table)
	if c.verbosity > 0 {
		c.logger.Info(fmt.Sprintf("Loaded table %s from %s", key, entry.Path), "database")
	}
	return table, nil
}
