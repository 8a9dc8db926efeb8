// Package library persists the capture history to a local SQLite database.
// Each recording session becomes one row, begun when recording starts and
// finished with an outcome and final path when it stops. The live phase
// state itself is never persisted here.
package library
