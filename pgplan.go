// Package pgplan ties schema sources to the planning pipeline. The command
// and the tests both go through Run.
package pgplan

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pgplan/pgplan/database"
	"github.com/pgplan/pgplan/schema"
)

type Options struct {
	// Description goes into the migration header.
	Description string
	// Export dumps the current schema as declarative SQL instead of planning.
	Export bool
	// Output is a file path, or "-" for stdout.
	Output string
	// Logger receives progress messages. Defaults to stdout; tests pass
	// database.NullLogger.
	Logger database.Logger
}

// Run exports both sides, validates them and writes either the current
// schema dump or the planned migration.
func Run(current, desired database.Source, options *Options) error {
	logger := options.Logger
	if logger == nil {
		logger = database.StdoutLogger{}
	}

	currentSchema, err := exportSchema(current, "current")
	if err != nil {
		return err
	}

	if options.Export {
		text, err := schema.Export(currentSchema)
		if err != nil {
			return err
		}
		return writeOutput(options.Output, text)
	}

	desiredSchema, err := exportSchema(desired, "desired")
	if err != nil {
		return err
	}

	migration, err := schema.Diff(currentSchema, desiredSchema)
	if err != nil {
		return err
	}
	migration.Description = options.Description

	if migration.Empty() {
		logger.Println("-- Nothing is modified --")
		return nil
	}
	return writeOutput(options.Output, migration.Render(time.Now()))
}

func exportSchema(source database.Source, side string) (*schema.Schema, error) {
	s, err := source.ExportSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to export %s schema: %w", side, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s schema: %w", side, err)
	}
	slog.Debug("exported schema", "side", side, "tables", len(s.Tables), "views", len(s.Views))
	return s, nil
}

func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Print(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}
