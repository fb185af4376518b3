package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logFilePattern = "prdtool-*.log"

// SetupLogFile opens a fresh timestamped log file in dir and prunes the
// oldest files so at most maxFiles remain. The caller closes the file.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := filepath.Join(dir, "prdtool-"+time.Now().Format("2006-01-02T15-04-05.000")+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Pruning is best effort; the new file is usable either way
	if err := pruneLogs(dir, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune old logs: %v\n", err)
	}

	return f, nil
}

// pruneLogs keeps the newest keep files. Names sort chronologically.
func pruneLogs(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}
