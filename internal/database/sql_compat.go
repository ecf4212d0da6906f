package database

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	driverMu sync.RWMutex
	driver   = "postgres"
)

// SetDriver records the active database driver. Called once by Connect;
// tests may call it directly.
func SetDriver(name string) {
	driverMu.Lock()
	driver = strings.ToLower(name)
	driverMu.Unlock()
}

// GetDBDriver returns the current database driver.
func GetDBDriver() string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	return driver
}

// IsMySQL returns true if using MySQL/MariaDB.
func IsMySQL() bool {
	d := GetDBDriver()
	return d == "mysql" || d == "mariadb"
}

// IsPostgreSQL returns true if using PostgreSQL.
func IsPostgreSQL() bool {
	return GetDBDriver() == "postgres"
}

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts SQL placeholders to the format required by the
// current database. All queries in this codebase use ? placeholders; $N
// placeholders are a bug and panic early.
//   - PostgreSQL: ? -> $1, $2, ...
//   - MySQL / sqlite: ? passed through as-is
func ConvertPlaceholders(query string) string {
	if dollarPlaceholder.MatchString(query) {
		panic(fmt.Sprintf("ConvertPlaceholders: $N placeholders are not allowed, use ?\nQuery: %s", query))
	}

	if IsPostgreSQL() && strings.Contains(query, "?") {
		var result strings.Builder
		paramNum := 1
		for _, c := range query {
			if c == '?' {
				fmt.Fprintf(&result, "$%d", paramNum)
				paramNum++
			} else {
				result.WriteRune(c)
			}
		}
		query = result.String()
	}

	if IsMySQL() {
		query = strings.ReplaceAll(query, " ILIKE ", " LIKE ")
		query = strings.ReplaceAll(query, " ilike ", " LIKE ")
	}

	return query
}

var returningClause = regexp.MustCompile(`(?i)\s+RETURNING\s+.*$`)

// ConvertReturning strips the RETURNING clause for drivers that lack it. The
// second return value tells the caller to use LastInsertId instead.
func ConvertReturning(query string) (string, bool) {
	if IsPostgreSQL() {
		return query, false
	}
	if returningClause.MatchString(query) {
		return returningClause.ReplaceAllString(query, ""), true
	}
	return query, false
}
