// Package ingest turns uploaded CV files into candidates and applications:
// text extraction, prompting, parsing, upserting and linking, with failures
// isolated per file, per chunk and per record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cv-talent/internal/llm"
	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBatchSize is the number of CVs sent per prompt.
const DefaultBatchSize = 5

// TextExtractor turns an uploaded file into cleaned text.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

type State string

const (
	StateIdle            State = "idle"
	StateFilesReceived   State = "files_received"
	StateTextExtracted   State = "text_extracted"
	StateChunked         State = "chunked"
	StatePromptSent      State = "prompt_sent"
	StateResponseParsed  State = "response_parsed"
	StatePersisted       State = "persisted"
	StateCompleted       State = "completed"
	StatePartiallyFailed State = "partially_failed"
)

// Stages named in failures.
const (
	StageExtract = "extract"
	StagePrompt  = "prompt"
	StageGateway = "gateway"
	StageParse   = "parse"
	StagePersist = "persist"
	StageLink    = "link"
)

type File struct {
	Name string
	Data []byte
}

type Request struct {
	Files        []File
	VacancyID    uuid.UUID
	VacancyTitle string
	Filter       string
	UserID       *uuid.UUID
}

// Failure describes one file, chunk or record that did not make it through.
type Failure struct {
	Stage   string      `json:"stage"`
	Item    string      `json:"item"`
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
	Files   []string    `json:"files,omitempty"`
}

// Result pairs a stored candidate with its application for the vacancy.
type Result struct {
	Candidate   models.Candidate   `json:"candidate"`
	Application models.Application `json:"application"`
}

type Report struct {
	RunID               uuid.UUID `json:"run_id"`
	State               State     `json:"state"`
	FilesReceived       int       `json:"files_received"`
	FilesExtracted      int       `json:"files_extracted"`
	ChunksTotal         int       `json:"chunks_total"`
	ChunksFailed        int       `json:"chunks_failed"`
	CandidatesCreated   int       `json:"candidates_created"`
	CandidatesUpdated   int       `json:"candidates_updated"`
	ApplicationsCreated int       `json:"applications_created"`
	ApplicationsLinked  int       `json:"applications_linked"`
	Dropped             int       `json:"dropped"`
	Failures            []Failure `json:"failures"`
	Results             []Result  `json:"-"`

	resultIndex map[uuid.UUID]int
}

func (r *Report) fail(stage, item string, err error, files ...string) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindPersistence
	}
	r.Failures = append(r.Failures, Failure{
		Stage:   stage,
		Item:    item,
		Kind:    kind,
		Message: apperr.Message(err),
		Files:   files,
	})
}

// addResult records a persisted pair, replacing an earlier entry for the
// same application so the latest write is reported.
func (r *Report) addResult(res Result) {
	if r.resultIndex == nil {
		r.resultIndex = map[uuid.UUID]int{}
	}
	if i, ok := r.resultIndex[res.Application.ID]; ok {
		r.Results[i] = res
		return
	}
	r.resultIndex[res.Application.ID] = len(r.Results)
	r.Results = append(r.Results, res)
}

type Options struct {
	BatchSize int
	Model     llm.ModelConfig
}

// Orchestrator drives one ingestion run at a time per call. Chunks run in
// order on the calling goroutine.
type Orchestrator struct {
	db         *gorm.DB
	extractor  TextExtractor
	gateway    llm.Gateway
	candidates *CandidateStore
	linker     *ApplicationLinker
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(db *gorm.DB, extractor TextExtractor, gateway llm.Gateway, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		db:         db,
		extractor:  extractor,
		gateway:    gateway,
		candidates: NewCandidateStore(db),
		linker:     NewApplicationLinker(db),
		opts:       opts,
		logger:     logger.Named("ingest"),
		now:        time.Now,
	}
}

type extracted struct {
	name string
	text string
}

// Run executes the pipeline for req. Only request validation errors are
// returned; everything after that is reported through Report.Failures.
// Cancellation of ctx does not stop a run once it has started.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	ctx = context.WithoutCancel(ctx)
	report := &Report{State: StateIdle, Failures: []Failure{}, Results: []Result{}}

	if len(req.Files) == 0 {
		return nil, apperr.Validation("no files")
	}
	if req.VacancyID == uuid.Nil {
		return nil, apperr.Validation("vacancy_id is required")
	}

	var vacancy models.Vacancy
	if err := o.db.WithContext(ctx).First(&vacancy, "id = ?", req.VacancyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("vacancy not found")
		}
		return nil, apperr.Persistence("vacancy", err)
	}

	title := strings.TrimSpace(req.VacancyTitle)
	if title == "" {
		title = vacancy.Title
	}
	filter := strings.TrimSpace(req.Filter)
	if filter == "" {
		filter = vacancy.RequiredSkills
	}

	started := o.now()
	log := o.logger.With(
		zap.String("vacancy_id", vacancy.ID.String()),
		zap.Int("files", len(req.Files)),
	)

	report.State = StateFilesReceived
	report.FilesReceived = len(req.Files)

	texts := make([]extracted, 0, len(req.Files))
	for _, f := range req.Files {
		text, err := o.extractor.Extract(ctx, f.Name, f.Data)
		if err != nil {
			log.Warn("Extraction failed", zap.String("file", f.Name), zap.Error(err))
			report.fail(StageExtract, f.Name, err)
			continue
		}
		if text == "" {
			report.fail(StageExtract, f.Name, apperr.Extraction(f.Name, errors.New("no extractable text")))
			continue
		}
		texts = append(texts, extracted{name: f.Name, text: text})
	}
	report.FilesExtracted = len(texts)
	report.State = StateTextExtracted

	chunks := chunk(texts, o.opts.BatchSize)
	report.ChunksTotal = len(chunks)
	report.State = StateChunked

	for i, c := range chunks {
		o.runChunk(ctx, report, i+1, c, vacancy.ID, title, filter)
	}

	if len(report.Failures) > 0 {
		report.State = StatePartiallyFailed
	} else {
		report.State = StateCompleted
	}

	o.saveRun(ctx, req, vacancy.ID, report, started)

	log.Info("Ingestion finished",
		zap.String("state", string(report.State)),
		zap.Int("chunks", report.ChunksTotal),
		zap.Int("chunks_failed", report.ChunksFailed),
		zap.Int("candidates_created", report.CandidatesCreated),
		zap.Int("candidates_updated", report.CandidatesUpdated),
		zap.Int("dropped", report.Dropped),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("elapsed", o.now().Sub(started)),
	)
	return report, nil
}

func (o *Orchestrator) runChunk(ctx context.Context, report *Report, n int, items []extracted, vacancyID uuid.UUID, title, filter string) {
	label := fmt.Sprintf("chunk %d", n)
	names := make([]string, len(items))
	texts := make([]string, len(items))
	for i, it := range items {
		names[i] = it.name
		texts[i] = it.text
	}

	prompt, err := BuildPrompt(texts, title, filter, o.now())
	if err != nil {
		report.ChunksFailed++
		report.fail(StagePrompt, label, err, names...)
		return
	}

	report.State = StatePromptSent
	raw, err := o.gateway.Send(ctx, prompt, o.opts.Model)
	if err != nil {
		o.logger.Warn("Chunk failed at gateway", zap.String("chunk", label), zap.Error(err))
		report.ChunksFailed++
		report.fail(StageGateway, label, err, names...)
		return
	}

	parsed, err := ParseCandidates(raw)
	if err != nil {
		o.logger.Warn("Chunk reply could not be parsed", zap.String("chunk", label), zap.Error(err))
		report.ChunksFailed++
		report.fail(StageParse, label, err, names...)
		return
	}
	report.State = StateResponseParsed
	report.Dropped += parsed.Dropped

	for _, rec := range parsed.Records {
		o.persist(ctx, report, rec, vacancyID)
	}
	report.State = StatePersisted
}

func (o *Orchestrator) persist(ctx context.Context, report *Report, rec CandidateRecord, vacancyID uuid.UUID) {
	up, err := o.candidates.Upsert(ctx, rec)
	if err != nil {
		o.logger.Warn("Candidate upsert failed", zap.String("candidate", rec.Label()), zap.Error(err))
		report.fail(StagePersist, rec.Label(), err)
		return
	}
	if up.Created {
		report.CandidatesCreated++
	} else {
		report.CandidatesUpdated++
	}

	link, err := o.linker.LinkOrCreate(ctx, up.Candidate.ID, vacancyID, string(rec.Status), rec.AIReason)
	if err != nil {
		o.logger.Warn("Application link failed", zap.String("candidate", rec.Label()), zap.Error(err))
		report.fail(StageLink, rec.Label(), err)
		return
	}
	if link.Created {
		report.ApplicationsCreated++
	} else {
		report.ApplicationsLinked++
	}

	report.addResult(Result{Candidate: up.Candidate, Application: link.Application})
}

func (o *Orchestrator) saveRun(ctx context.Context, req Request, vacancyID uuid.UUID, report *Report, started time.Time) {
	run := models.IngestionRun{
		UserID:              req.UserID,
		VacancyID:           &vacancyID,
		State:               string(report.State),
		FilesReceived:       report.FilesReceived,
		FilesExtracted:      report.FilesExtracted,
		ChunksTotal:         report.ChunksTotal,
		ChunksFailed:        report.ChunksFailed,
		CandidatesCreated:   report.CandidatesCreated,
		CandidatesUpdated:   report.CandidatesUpdated,
		ApplicationsCreated: report.ApplicationsCreated,
		ApplicationsLinked:  report.ApplicationsLinked,
		Dropped:             report.Dropped,
		Failures:            models.EncodeList(report.Failures),
		StartedAt:           started,
		FinishedAt:          o.now(),
	}
	if err := o.db.WithContext(ctx).Create(&run).Error; err != nil {
		o.logger.Error("Failed to save ingestion run", zap.Error(err))
		return
	}
	report.RunID = run.ID
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
