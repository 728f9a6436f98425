package metrics

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordDBPoolMetrics updates pool gauges from a pgx pool.
func RecordDBPoolMetrics(pool *pgxpool.Pool) {
	stats := pool.Stat()
	recordPool("postgres", stats.AcquiredConns(), stats.IdleConns(), stats.MaxConns())
}

// RecordSQLDBMetrics updates pool gauges from a database/sql handle.
func RecordSQLDBMetrics(driver string, db *sql.DB) {
	stats := db.Stats()
	recordPool(driver, int32(stats.InUse), int32(stats.Idle), int32(stats.MaxOpenConnections))
}

func recordPool(driver string, inUse, idle, maxConns int32) {
	DBPoolConnections.WithLabelValues(driver, "in_use").Set(float64(inUse))
	DBPoolConnections.WithLabelValues(driver, "idle").Set(float64(idle))
	DBPoolConnections.WithLabelValues(driver, "max").Set(float64(maxConns))
}
