package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"groupme-analyzer/backend/internal/constants"
	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/internal/stats"
	apperrors "groupme-analyzer/backend/pkg/errors"
)

// WriteCSV writes the header row and one row per member in first-seen order
func WriteCSV(w io.Writer, s *stats.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constants.ExportColumns); err != nil {
		return err
	}
	for _, m := range s.Members() {
		if err := cw.Write(row(m)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(m *state.MemberStats) []string {
	return []string{
		m.Name,
		strconv.Itoa(m.MessagesSent),
		strconv.Itoa(m.LikesGiven),
		strconv.Itoa(m.SelfLikes),
		strconv.Itoa(m.LikesReceived),
		strconv.Itoa(m.WordsSent),
	}
}

// SaveCSV writes the table to path, replacing any existing file.
// The table goes to a temp file first so a failed write leaves path untouched.
func SaveCSV(path string, s *stats.Stats) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewExportFailed(path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp_stats_*.csv")
	if err != nil {
		return apperrors.NewExportFailed(path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := WriteCSV(tmp, s); err != nil {
		_ = tmp.Close()
		return apperrors.NewExportFailed(path, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewExportFailed(path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return apperrors.NewExportFailed(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewExportFailed(path, err)
	}
	return nil
}
