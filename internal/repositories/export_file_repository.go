package repositories

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

const exportFileExt = ".jsonl"

// ExportFile is the parsed content of one dataset's export.
type ExportFile struct {
	Dataset      string
	Path         string
	Entries      map[string]models.AnswerRecord
	SkippedLines int
}

// ExportFileRepository reads and atomically replaces per-dataset JSONL
// exports.
type ExportFileRepository interface {
	Path(dataset string) string
	Load(ctx context.Context, dataset string) (*ExportFile, error)
	// Save replaces the dataset's export with entries in key order and
	// returns the file path. Nothing is written for an empty map.
	Save(ctx context.Context, dataset string, entries map[string]models.AnswerRecord) (string, error)
}

type jsonlExportRepository struct {
	dir    string
	rename func(oldpath, newpath string) error
}

func NewExportFileRepository(dir string) ExportFileRepository {
	return &jsonlExportRepository{
		dir:    dir,
		rename: os.Rename,
	}
}

func (r *jsonlExportRepository) Path(dataset string) string {
	return filepath.Join(r.dir, dataset+exportFileExt)
}

// EntryKey is the key an existing export line is filed under. Unlike
// AnswerRecord.Key it accepts lines with missing ids so they are carried
// over rather than dropped.
func EntryKey(r models.AnswerRecord) string {
	return r.String(models.FieldPID) + ":" + r.String(models.FieldUID)
}

func (r *jsonlExportRepository) Load(ctx context.Context, dataset string) (*ExportFile, error) {
	path := r.Path(dataset)
	file := &ExportFile{
		Dataset: dataset,
		Path:    path,
		Entries: make(map[string]models.AnswerRecord),
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if entry := models.DecodeRecord(line); entry != nil {
				file.Entries[EntryKey(entry)] = entry
			} else {
				file.SkippedLines++
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read export %s: %w", path, readErr)
		}
	}

	return file, nil
}

func (r *jsonlExportRepository) Save(ctx context.Context, dataset string, entries map[string]models.AnswerRecord) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := r.Path(dataset)
	tmp, err := os.CreateTemp(r.dir, dataset+exportFileExt+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary export: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := writeEntries(tmp, entries); err != nil {
		return "", fmt.Errorf("failed to write temporary export: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("failed to set export permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync temporary export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary export: %w", err)
	}

	if err := r.rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to replace export %s: %w", path, err)
	}
	committed = true

	return path, nil
}

func writeEntries(w io.Writer, entries map[string]models.AnswerRecord) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := bufio.NewWriter(w)
	for _, k := range keys {
		if err := models.EncodeRecord(buf, entries[k]); err != nil {
			return err
		}
	}
	return buf.Flush()
}
