package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "chartdesk/internal/errors"
	"chartdesk/pkg/contracts/domain"
)

// InputFile is a registered file: its metadata plus the parsed grid.
type InputFile struct {
	Meta domain.InputFileMeta
	Grid *Grid
}

// Registry is the in-memory set of loaded input files. It implements the
// session engine's Store interface: FetchSeries reads aligned value arrays
// and SaveEdit writes a single raw cell.
type Registry struct {
	mu     sync.RWMutex
	files  map[domain.FileID]*InputFile
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		files:  make(map[domain.FileID]*InputFile),
		logger: logger.With(slog.String("component", "store")),
	}
}

// LoadDir scans dir for *.csv input files and registers every parseable
// one. Files without a Name column are skipped, not fatal. A missing
// directory is not an error; the registry simply starts empty.
func (r *Registry) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("data directory absent, starting empty", slog.String("dir", dir))
			return nil
		}
		return fmt.Errorf("read data dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			grid, err := ParseCSV(f)
			if err != nil {
				r.logger.Warn("skipping unparseable input file",
					slog.String("file", name), slog.String("error", err.Error()))
				return nil
			}
			r.register(domain.FileID(name), name, grid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.RLock()
	count := len(r.files)
	r.mu.RUnlock()
	r.logger.Info("data directory loaded", slog.String("dir", dir), slog.Int("files", count))
	return nil
}

// Add parses and registers an uploaded file. A duplicate filename receives a
// uuid-suffixed id so the existing file is not displaced.
func (r *Registry) Add(filename string, content io.Reader) (domain.InputFileMeta, error) {
	var (
		grid *Grid
		err  error
	)
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		data, readErr := io.ReadAll(content)
		if readErr != nil {
			return domain.InputFileMeta{}, fmt.Errorf("read upload: %w", readErr)
		}
		grid, err = ParseXLSX(bytes.NewReader(data))
	} else {
		grid, err = ParseCSV(content)
	}
	if err != nil {
		return domain.InputFileMeta{}, err
	}

	// The duplicate check and the insert stay under one write lock so two
	// concurrent uploads of the same filename cannot claim the same id.
	r.mu.Lock()
	id := domain.FileID(filename)
	if _, exists := r.files[id]; exists {
		ext := filepath.Ext(filename)
		stem := strings.TrimSuffix(filename, ext)
		id = domain.FileID(fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext))
	}
	meta := r.registerLocked(id, filename, grid)
	r.mu.Unlock()

	r.logger.Info("input file registered",
		slog.String("id", string(id)), slog.Int("series", len(grid.Order)), slog.Int("columns", len(grid.Columns)))
	return meta, nil
}

func (r *Registry) register(id domain.FileID, name string, grid *Grid) domain.InputFileMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(id, name, grid)
}

// registerLocked requires the caller to hold r.mu.
func (r *Registry) registerLocked(id domain.FileID, name string, grid *Grid) domain.InputFileMeta {
	meta := domain.InputFileMeta{
		ID:      id,
		Name:    name,
		Series:  grid.SeriesNames(),
		Columns: append([]domain.Label(nil), grid.Columns...),
	}
	r.files[id] = &InputFile{Meta: meta, Grid: grid}
	return meta
}

// List returns file metadata sorted by id, plus the sorted union of all
// series names.
func (r *Registry) List() ([]domain.InputFileMeta, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]domain.InputFileMeta, 0, len(r.files))
	union := make(map[string]struct{})
	for _, f := range r.files {
		metas = append(metas, f.Meta)
		for _, s := range f.Meta.Series {
			union[s] = struct{}{}
		}
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })

	names := make([]string, 0, len(union))
	for s := range union {
		names = append(names, s)
	}
	sort.Strings(names)
	return metas, names
}

// Get returns a registered file by id.
func (r *Registry) Get(id domain.FileID) (*InputFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	return f, ok
}

// FetchSeries returns the named series across the selected files. The first
// file's columns define the axis; other files are reindexed onto it, with
// labels they lack reading as null.
func (r *Registry) FetchSeries(ctx context.Context, seriesName string, fileIDs []domain.FileID) (domain.SeriesData, error) {
	if err := ctx.Err(); err != nil {
		return domain.SeriesData{}, err
	}
	if len(fileIDs) == 0 {
		return domain.SeriesData{}, fmt.Errorf("no files selected")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	primary, ok := r.files[fileIDs[0]]
	if !ok {
		return domain.SeriesData{}, apperrors.Condition(apperrors.ErrUnknownFile, "file %q", fileIDs[0])
	}
	labels := append([]domain.Label(nil), primary.Grid.Columns...)

	data := domain.SeriesData{Labels: labels}
	for _, id := range fileIDs {
		f, ok := r.files[id]
		if !ok {
			return domain.SeriesData{}, apperrors.Condition(apperrors.ErrUnknownFile, "file %q", id)
		}
		row, ok := f.Grid.Values(seriesName)
		if !ok {
			return domain.SeriesData{}, apperrors.Condition(apperrors.ErrUnknownSeries, "series %q in file %q", seriesName, id)
		}

		values := make([]*float64, len(labels))
		for i, label := range labels {
			for j, col := range f.Grid.Columns {
				if col == label {
					values[i] = row[j]
					break
				}
			}
		}
		data.Series = append(data.Series, domain.FileSeries{File: id, Values: values})
	}
	return data, nil
}

// SaveEdit writes a raw value into a file's grid at (seriesName, label).
func (r *Registry) SaveEdit(ctx context.Context, fileID domain.FileID, seriesName string, label domain.Label, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[fileID]
	if !ok {
		return apperrors.Condition(apperrors.ErrUnknownFile, "file %q", fileID)
	}
	return f.Grid.Set(seriesName, label, value)
}
