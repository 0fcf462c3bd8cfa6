package diag

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// readPrivacyTable reads per-app privacy grants from a simulator TCC
// store. auth_value 2 is allowed and 3 is allowed-with-limits; anything
// else counts as denied. Service names are reported without their
// kTCCService prefix.
func readPrivacyTable(path, bundleID string) ([]Permission, error) {
	// Stat first: opening a missing path would create an empty store.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("privacy store not found: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT service, auth_value FROM access WHERE client = ?`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var service string
		var auth int
		if err := rows.Scan(&service, &auth); err != nil {
			return nil, err
		}
		perms = append(perms, Permission{
			Name:    strings.TrimPrefix(service, "kTCCService"),
			Granted: auth == 2 || auth == 3,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortPermissions(perms)
	return perms, nil
}
