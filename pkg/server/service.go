package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/deep-research/pkg/archive"
	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/peer"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

type Service struct {
	DB      *database.PostgresDB
	Cfg     *config.Config
	Archive *archive.Archive
}

func NewService(db *database.PostgresDB, cfg *config.Config) *Service {
	return &Service{
		DB:  db,
		Cfg: cfg,
	}
}

// InitArchive prepares the shared source archive. Jobs and the
// corpus endpoint both use it; a service without an archive still
// researches, it just keeps no corpus.
func (s *Service) InitArchive(ctx context.Context) error {
	arc, err := archive.NewFromConfig(ctx, s.DB, s.Cfg)
	if err != nil {
		return err
	}
	s.Archive = arc
	return nil
}

// NewEngine wires a research engine from the service configuration:
// LLM client, search provider, optional remote peer, optional source
// archive.
func (s *Service) NewEngine(ctx context.Context, logger *slog.Logger) (*research.Engine, error) {
	llm, err := clients.GoogleAi(ctx, clients.ModelType(s.Cfg.FastModel))
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}

	apiKey := s.Cfg.SerperApiKey
	if search.Provider(s.Cfg.SearchProvider) == search.BraveProvider {
		apiKey = s.Cfg.BraveApiKey
	}
	searcher, err := search.NewSearcher(search.Provider(s.Cfg.SearchProvider), apiKey)
	if err != nil {
		return nil, err
	}

	engine := research.NewEngine(research.Config{MaxResults: s.Cfg.MaxResults}, llm, searcher)
	if logger != nil {
		engine.Logger = logger
	}

	if s.Cfg.PeerURL != "" {
		engine.Rounds = peer.NewClient(s.Cfg.PeerURL)
	}

	if s.Archive != nil {
		engine.Archiver = s.Archive
	}

	return engine, nil
}

type Job struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Depth     int       `json:"depth"`
	Breadth   int       `json:"breadth"`
	Status    string    `json:"status"`
	Report    *string   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateJobRequest struct {
	Query   string `json:"query" binding:"required,min=1"`
	Depth   int    `json:"depth" binding:"omitempty,gte=1,lte=5"`
	Breadth int    `json:"breadth" binding:"omitempty,gte=1,lte=5"`
}

// Budget applies the request defaults: depth 2, breadth 3.
func (r CreateJobRequest) Budget() research.Budget {
	budget := research.Budget{Depth: r.Depth, Breadth: r.Breadth}
	if budget.Depth == 0 {
		budget.Depth = 2
	}
	if budget.Breadth == 0 {
		budget.Breadth = 3
	}
	return budget
}

func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	budget := req.Budget()

	jobID := uuid.New()
	query := `
		INSERT INTO research_jobs (id, query, depth, breadth, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, query, depth, breadth, status, created_at, updated_at
	`

	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, jobID, req.Query, budget.Depth, budget.Breadth).Scan(
		&job.ID, &job.Query, &job.Depth, &job.Breadth, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	// Start background worker
	go s.runWorker(job.ID, req.Query, budget)

	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, query, depth, breadth, status, report, created_at, updated_at
		FROM research_jobs
		WHERE id = $1
	`
	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Query, &job.Depth, &job.Breadth, &job.Status, &job.Report, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	query := `
		SELECT id, query, depth, breadth, status, report, created_at, updated_at
		FROM research_jobs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Query, &job.Depth, &job.Breadth, &job.Status, &job.Report, &job.CreatedAt, &job.UpdatedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Service) runWorker(jobID uuid.UUID, query string, budget research.Budget) {
	ctx := context.Background()

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", jobID)

	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))

	engine, err := s.NewEngine(ctx, dbLogger)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("Failed to init engine: %v", err))
		return
	}

	// Persist the record as it grows so the API can expose progress
	engine.OnUpdate = func(rec *research.Record) {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			dbLogger.Error("Failed to marshal record", "error", err)
			return
		}

		_, err = s.DB.Pool.Exec(context.Background(),
			"UPDATE research_jobs SET record = $2, updated_at = NOW() WHERE id = $1",
			jobID, recordJSON)
		if err != nil {
			dbLogger.Error("Failed to save record to DB", "error", err)
		}
	}

	rec, err := engine.Run(ctx, query, budget)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("Research failed: %v", err))
		return
	}

	report, err := engine.RenderReport(ctx, rec)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("Report synthesis failed: %v", err))
		return
	}

	recordJSON, _ := json.Marshal(rec)
	_, err = s.DB.Pool.Exec(ctx,
		"UPDATE research_jobs SET status = 'completed', report = $2, record = $3, updated_at = NOW() WHERE id = $1",
		jobID, report, recordJSON)
	if err != nil {
		dbLogger.Error("Failed to save final report to DB", "error", err)
	}
}

func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, reason string) {
	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))
	dbLogger.Error(reason)

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'failed', updated_at = NOW() WHERE id = $1", jobID)
}
