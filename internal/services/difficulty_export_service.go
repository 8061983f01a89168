package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/difficulty-export/internal/cache"
	"github.com/SAP-F-2025/difficulty-export/internal/events"
	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
	"github.com/SAP-F-2025/difficulty-export/internal/validator"
)

// ExportOptions controls one engine run
type ExportOptions struct {
	// ReadOnly computes classification and the switch narrative without
	// touching any export file.
	ReadOnly   bool
	ReportPath string
}

// WrittenExport describes one replaced export file
type WrittenExport struct {
	Dataset      string                 `json:"dataset"`
	Path         string                 `json:"path"`
	Scale        models.DifficultyScale `json:"scale"`
	Entries      int                    `json:"entries"`
	SkippedLines int                    `json:"skipped_lines"`
}

// ExportResult is everything a run observed and produced
type ExportResult struct {
	RunID    string                            `json:"run_id"`
	ReadOnly bool                              `json:"read_only"`
	Records  []*DifficultyRecord               `json:"-"`
	Stats    []models.DatasetStats             `json:"stats"`
	Scales   map[string]models.DifficultyScale `json:"scales"`
	Written  []WrittenExport                   `json:"written"`
	Switches ScaleSwitches                     `json:"-"`

	Scanned int `json:"records_scanned"`
	Skipped int `json:"records_skipped"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// DifficultyExportService runs the export and reconciliation pass
type DifficultyExportService interface {
	Run(ctx context.Context, opts ExportOptions) (*ExportResult, error)
}

// ExportDependencies groups the collaborators of the export service.
// Runs, Publisher, Policy, Validator and MetadataCache may be left nil.
type ExportDependencies struct {
	Store     store.Store
	Keys      store.Keys
	Exports   repositories.ExportFileRepository
	Runs      repositories.RunRepository
	Publisher events.EventPublisher
	Policy    *MergePolicy
	Validator *validator.Validator
	Logger    *slog.Logger

	// MetadataCache builds the cache for a single run. Metadata is
	// re-read on every run.
	MetadataCache func() cache.MetadataCache
}

type difficultyExportService struct {
	store     store.Store
	keys      store.Keys
	exports   repositories.ExportFileRepository
	runs      repositories.RunRepository
	publisher events.EventPublisher
	merger    *ExportMerger
	validator *validator.Validator
	newCache  func() cache.MetadataCache
	log       *ServiceLogger
}

func NewDifficultyExportService(deps ExportDependencies) DifficultyExportService {
	s := &difficultyExportService{
		store:     deps.Store,
		keys:      deps.Keys,
		exports:   deps.Exports,
		runs:      deps.Runs,
		publisher: deps.Publisher,
		merger:    NewExportMerger(deps.Policy),
		validator: deps.Validator,
		newCache:  deps.MetadataCache,
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s.log = NewServiceLogger(logger, LogConfig{Service: "difficulty-export", Component: "engine"})

	if s.keys.Namespace == "" {
		s.keys = store.NewKeys("")
	}
	if s.runs == nil {
		s.runs = repositories.NopRunRepository{}
	}
	if s.publisher == nil {
		s.publisher = events.NewMockEventPublisher(logger)
	}
	if s.validator == nil {
		s.validator = validator.New()
	}
	if s.newCache == nil {
		s.newCache = func() cache.MetadataCache {
			return cache.NewMetadataCache(s.store, s.keys, decodeMetadata)
		}
	}
	return s
}

func (s *difficultyExportService) Run(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	result := &ExportResult{
		RunID:     uuid.NewString(),
		ReadOnly:  opts.ReadOnly,
		StartedAt: time.Now().UTC(),
	}

	err := s.run(ctx, opts, result)
	result.FinishedAt = time.Now().UTC()

	s.recordRun(ctx, result, err)
	s.log.LogOperation(ctx, "export_run", result.RunID, result.FinishedAt.Sub(result.StartedAt), err,
		slog.Bool("read_only", opts.ReadOnly),
		slog.Int("records_scanned", result.Scanned),
		slog.Int("records_skipped", result.Skipped),
		slog.Int("datasets_updated", len(result.Written)),
	)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventRunCompleted, events.RunCompletedEvent{
		RunID:           result.RunID,
		ReadOnly:        result.ReadOnly,
		RecordsScanned:  result.Scanned,
		RecordsSkipped:  result.Skipped,
		DatasetsUpdated: len(result.Written),
		Scales:          scaleNames(result.Scales),
		Switches:        result.Switches.Messages(),
	})

	return result, nil
}

func (s *difficultyExportService) run(ctx context.Context, opts ExportOptions, result *ExportResult) error {
	aggregator := NewScaleAggregator()
	if err := s.collect(ctx, aggregator, result); err != nil {
		return err
	}

	result.Scales = aggregator.Scales()
	result.Stats = aggregator.Stats()
	LabelRecords(result.Records, result.Scales)
	SortRecords(result.Records)

	if !opts.ReadOnly {
		if err := s.export(ctx, result); err != nil {
			return err
		}
	}

	result.Switches = BuildTimeline(result.Records).Reconstruct()

	if opts.ReportPath != "" {
		if err := WriteScaleReport(opts.ReportPath, result.Stats, result.Switches); err != nil {
			return fmt.Errorf("%w: %v", ErrExportDirUnwritable, err)
		}
	}
	return nil
}

// ===== COLLECT PHASE =====

func (s *difficultyExportService) collect(ctx context.Context, aggregator *ScaleAggregator, result *ExportResult) error {
	pids, err := s.store.Members(ctx, s.keys.Respondents())
	if err != nil {
		return fmt.Errorf("%w: failed to list respondents: %v", ErrStoreUnavailable, err)
	}
	sort.Strings(pids)

	joiner := NewMetadataJoiner(s.newCache())

	for _, pid := range pids {
		err := s.store.Scan(ctx, s.keys.AnswerPattern(pid), func(key string) error {
			if store.IsMetaKey(key) {
				return nil
			}
			result.Scanned++

			rec, err := s.collectOne(ctx, joiner, key)
			if err != nil {
				if IsRecordLevel(err) {
					result.Skipped++
					s.log.LogSkipped(ctx, err)
					return nil
				}
				return err
			}

			aggregator.Observe(rec)
			result.Records = append(result.Records, rec)
			return nil
		})
		if err != nil {
			if IsConfiguration(err) {
				return err
			}
			return fmt.Errorf("%w: failed to scan answers of %s: %v", ErrStoreUnavailable, pid, err)
		}
	}

	return nil
}

func (s *difficultyExportService) collectOne(ctx context.Context, joiner *MetadataJoiner, key string) (*DifficultyRecord, error) {
	ak, ok := store.ParseAnswerKey(key)
	if !ok {
		return nil, NewRecordError(key, "", ErrInvalidKey)
	}

	payload, err := LoadRecord(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, NewRecordError(key, ak.Dataset, ErrMalformedRecord)
	}

	dataset, err := joiner.Enrich(ctx, ak, payload)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDatasetID(dataset); err != nil {
		return nil, NewRecordError(key, dataset, fmt.Errorf("%w: %v", ErrInvalidDataset, err))
	}

	return NewDifficultyRecord(dataset, payload), nil
}

// ===== EXPORT PHASE =====

// export merges the run's records into each dataset's file. Records are
// already in timeline order, so a later answer for the same key wins.
func (s *difficultyExportService) export(ctx context.Context, result *ExportResult) error {
	grouped := make(map[string]map[string]models.AnswerRecord)
	for _, rec := range result.Records {
		key := rec.Payload.Key()
		if key == "" {
			result.Skipped++
			s.log.LogSkipped(ctx, NewRecordError(rec.Payload.String(models.FieldUID), rec.Dataset, ErrMissingIdentity))
			continue
		}
		if grouped[rec.Dataset] == nil {
			grouped[rec.Dataset] = make(map[string]models.AnswerRecord)
		}
		grouped[rec.Dataset][key] = rec.Payload
	}

	datasets := make([]string, 0, len(grouped))
	for dataset := range grouped {
		datasets = append(datasets, dataset)
	}
	sort.Strings(datasets)

	for _, dataset := range datasets {
		written, err := s.exportDataset(ctx, dataset, result.Scales[dataset], grouped[dataset])
		if err != nil {
			return err
		}
		result.Written = append(result.Written, *written)

		s.log.LogDatasetExported(ctx, written.Dataset, written.Path, written.Entries, written.SkippedLines)
		s.publish(ctx, events.EventDatasetExported, events.DatasetExportedEvent{
			RunID:   result.RunID,
			Dataset: written.Dataset,
			Path:    written.Path,
			Scale:   string(written.Scale),
			Entries: written.Entries,
		})
	}

	return nil
}

func (s *difficultyExportService) exportDataset(ctx context.Context, dataset string, scale models.DifficultyScale, incoming map[string]models.AnswerRecord) (*WrittenExport, error) {
	if scale == "" {
		scale = models.ScaleUnknown
	}

	existing, err := s.exports.Load(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportDirUnwritable, err)
	}

	merged := s.merger.MergeDataset(existing.Entries, incoming, dataset, scale)

	path, err := s.exports.Save(ctx, dataset, merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportDirUnwritable, err)
	}

	return &WrittenExport{
		Dataset:      dataset,
		Path:         path,
		Scale:        scale,
		Entries:      len(merged),
		SkippedLines: existing.SkippedLines,
	}, nil
}

// ===== SIDE EFFECTS =====

func (s *difficultyExportService) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if err := s.publisher.PublishExportEvent(ctx, events.NewExportEvent(eventType, data)); err != nil {
		s.log.LogSideEffectFailure(ctx, "publish "+string(eventType), err)
	}
}

func (s *difficultyExportService) recordRun(ctx context.Context, result *ExportResult, runErr error) {
	run := &models.ExportRun{
		RunID:           result.RunID,
		ReadOnly:        result.ReadOnly,
		Status:          models.ExportRunCompleted,
		RecordsScanned:  result.Scanned,
		RecordsSkipped:  result.Skipped,
		DatasetsUpdated: len(result.Written),
		StartedAt:       result.StartedAt,
		FinishedAt:      result.FinishedAt,
	}
	if runErr != nil {
		run.Status = models.ExportRunFailed
		run.Error = runErr.Error()
	}

	paths := make(map[string]string, len(result.Written))
	for _, w := range result.Written {
		paths[w.Dataset] = w.Path
	}
	run.Scales = toJSON(scaleNames(result.Scales))
	run.Written = toJSON(paths)

	if err := s.runs.Create(ctx, run); err != nil {
		s.log.LogSideEffectFailure(ctx, "record export run", err)
	}
}

func scaleNames(scales map[string]models.DifficultyScale) map[string]string {
	out := make(map[string]string, len(scales))
	for dataset, scale := range scales {
		out[dataset] = string(scale)
	}
	return out
}

func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
