package db

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// RunMigrateCommand implements "garage migrate <action>". Output goes to
// stdout so it can be piped; errors are returned rather than fatal so
// main decides the exit code.
func RunMigrateCommand(args []string, dbPath string) error {
	return runMigrate(os.Stdout, args, dbPath)
}

func runMigrate(out io.Writer, args []string, dbPath string) error {
	if len(args) == 0 {
		printMigrateHelp(out)
		return fmt.Errorf("migrate: action required")
	}

	action := args[0]
	if action == "help" || action == "-h" || action == "--help" {
		printMigrateHelp(out)
		return nil
	}

	migFS, err := getMigrationsFS()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(migFS); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations applied")
	case "down":
		if err := database.MigrateDown(migFS); err != nil {
			return err
		}
		fmt.Fprintln(out, "rolled back one migration")
	case "status", "version":
		version, dirty, err := database.MigrateVersion(migFS)
		if err != nil {
			return err
		}
		latest, err := LatestMigrationVersion(migFS)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "current version: %d\nlatest available: %d\ndirty: %v\n", version, latest, dirty)
		switch {
		case dirty:
			fmt.Fprintln(out, "database is dirty; inspect it and run 'migrate force <version>'")
		case version < latest:
			fmt.Fprintf(out, "%d migration(s) pending; run 'migrate up'\n", latest-version)
		default:
			fmt.Fprintln(out, "database is up to date")
		}
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("migrate force: version required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number %q: %w", args[1], err)
		}
		if err := database.MigrateForce(migFS, v); err != nil {
			return err
		}
		fmt.Fprintf(out, "migration version forced to %d\n", v)
	default:
		printMigrateHelp(out)
		return fmt.Errorf("unknown migrate action %q", action)
	}
	return nil
}

func printMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: garage migrate <action> [args]

Actions:
  up              apply all pending migrations
  down            roll back the most recent migration
  status          show current and latest schema versions
  force <version> set the version without running migrations (dirty recovery)
  help            show this message
`)
}
