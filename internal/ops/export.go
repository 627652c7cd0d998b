package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/history"
)

// ExportInput contains parameters for the ExportHistory operation.
type ExportInput struct {
	Path string // optional, default: <base>/exports/history-<timestamp>.jsonl
	From string // optional, inclusive
	To   string // optional, inclusive
}

// ExportOutput contains the result of the ExportHistory operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Days       int    `json:"days"`
	Entries    int    `json:"entries"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHistory writes recorded days to a JSONL file: a header line, then
// one line per day in ascending date order.
func ExportHistory(ctx context.Context, env Env, input ExportInput) (*ExportOutput, error) {
	from, err := checkDate(input.From)
	if err != nil {
		return nil, err
	}
	to, err := checkDate(input.To)
	if err != nil {
		return nil, err
	}
	if from != "" && to != "" && to < from {
		return nil, errors.NewInvalidRequest("to must not be before from")
	}

	now := env.Nav.Now()
	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(env.ExportsDir(), fmt.Sprintf("history-%s.jsonl", now.Format("2006-01-02T150405")))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, env.config(), env.ExportsDir()); err != nil {
		return nil, err
	}

	// Seals yesterday if the day has turned since the last write.
	_, archive, err := env.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := archive.Dates(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to a temp file, then rename over the destination so a failed
	// export never clobbers an earlier one.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	if err := enc.Encode(history.Header(now.Unix())); err != nil {
		return nil, errors.NewInternal(err)
	}

	days, entries := 0, 0
	for _, d := range dates {
		if (from != "" && d < from) || (to != "" && d > to) {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}

		snap := archive.ReadSnapshot(ctx, d)
		if err := enc.Encode(history.Record{Date: d, Entries: snap}); err != nil {
			return nil, errors.NewInternal(err)
		}
		days++
		entries += len(snap)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	env.logger().WithFields(logrus.Fields{"path": exportPath, "days": days}).Info("history exported")
	return &ExportOutput{
		Path:       exportPath,
		Days:       days,
		Entries:    entries,
		ExportedAt: now.Unix(),
	}, nil
}

