// Package admin holds destructive maintenance operations. Nothing in the
// HTTP server reaches it; only the purge command does.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"workdiary/internal/providers"
	"workdiary/internal/store"
)

// ConfirmationWord must be typed to confirm a purge without --force.
const ConfirmationWord = "PURGE"

var ErrAborted = errors.New("aborted: confirmation text did not match")

// PurgeImages deletes every file and directory below root. The root itself
// is kept so the server can keep serving from it. A missing root is not an error.
func PurgeImages(root string, logger providers.Logger) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read image root: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		fullPath := filepath.Join(root, entry.Name())
		n, err := countFiles(fullPath)
		if err != nil {
			return removed, err
		}
		if err := os.RemoveAll(fullPath); err != nil {
			return removed, fmt.Errorf("remove %s: %w", fullPath, err)
		}
		removed += n
		logger.Infof(providers.TypeApp, "Deleted %s (%d files)", fullPath, n)
	}
	return removed, nil
}

func countFiles(path string) (int, error) {
	n := 0
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", path, err)
	}
	return n, nil
}

// PurgeEntries removes every row, soft-deleted or not, and resets ids.
func PurgeEntries(ctx context.Context, st store.Store, logger providers.Logger) error {
	if err := st.Truncate(ctx); err != nil {
		return fmt.Errorf("purge entries: %w", err)
	}
	logger.Infof(providers.TypeApp, "All work diary entries deleted and ids reset")
	return nil
}

// Confirm prints what is about to be destroyed and waits for ConfirmationWord.
func Confirm(in io.Reader, out io.Writer, targets []string) error {
	fmt.Fprintln(out, "WARNING: This will permanently delete:")
	for _, t := range targets {
		fmt.Fprintf(out, "  - %s\n", t)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintf(out, "Type %q to confirm: ", ConfirmationWord)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != ConfirmationWord {
		return ErrAborted
	}
	return nil
}
