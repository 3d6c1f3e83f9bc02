// Package database provides SQLite-based storage for scan history.
//
// Every run records one row per executed scan, so operators can answer
// "when did we last scan this account, and how did it go?" without digging
// through Prowler's output directories. The database lives in the XDG data
// directory and is purely additive history: nothing in the scan path reads
// it, and a persistence failure never interrupts a run.
package database
