package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/garage.gate/internal/db"
	"github.com/banshee-data/garage.gate/internal/security"
)

// runBackup implements "garage backup": it copies the journal at dbPath to
// a file under the working or temp directory.
func runBackup(out io.Writer, dbPath string, args []string, now time.Time) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	fs.SetOutput(out)
	target := fs.String("out", fmt.Sprintf("garage-backup-%d.db", now.Unix()), "Backup file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if dbPath == "" {
		return fmt.Errorf("no journal configured (-db-path is empty)")
	}
	if err := security.ValidateExportPath(*target); err != nil {
		return err
	}

	journal, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	if err := journal.BackupTo(*target); err != nil {
		return err
	}
	fmt.Fprintf(out, "journal backed up to %s\n", *target)
	return nil
}
