// Package pipeline drives a submitted job through fetch, extraction,
// chunking and embedding, ending in a persisted document. Each job runs on
// its own goroutine; jobs never affect each other.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docgarden/features/document"
	"docgarden/features/job"
	"docgarden/internal/extract"
	"docgarden/internal/text"
)

// Progress checkpoints. Values only ever move forward; the PDF path reports
// lower processing marks because it has the extra recognition stage.
const (
	progressFetching      = 10
	progressProcessHTML   = 25
	progressRenderPDF     = 20
	progressRecognizePDF  = 40
	progressChunkingHTML  = 50
	progressChunkingPDF   = 60
	progressEmbeddingHTML = 75
	progressEmbeddingPDF  = 80
	progressCompleted     = 100
)

// pagePrefixLen is how much of a chunk's leading text is matched against
// page text when attributing chunks to PDF pages. The attribution is an
// approximation: chunks spanning a page boundary land on the page holding
// their start.
const pagePrefixLen = 50

type Config struct {
	ChunkSize         int
	UploadDir         string
	MaxConcurrentJobs int64
	FetchTimeout      time.Duration
}

type Processor struct {
	jobs     job.Repository
	docs     document.Repository
	indexer  ChunkIndexer
	events   Events
	ocr      OCRClient
	embedder Embedder
	fetch    *http.Client
	sem      *semaphore.Weighted
	cfg      Config
}

func NewProcessor(jobs job.Repository, docs document.Repository, indexer ChunkIndexer, events Events, ocr OCRClient, embedder Embedder, cfg Config) *Processor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = text.DefaultChunkSize
	}
	p := &Processor{
		jobs:     jobs,
		docs:     docs,
		indexer:  indexer,
		events:   events,
		ocr:      ocr,
		embedder: embedder,
		fetch:    &http.Client{Timeout: cfg.FetchTimeout},
		cfg:      cfg,
	}
	if cfg.MaxConcurrentJobs > 0 {
		p.sem = semaphore.NewWeighted(cfg.MaxConcurrentJobs)
	}
	return p
}

// Dispatch hands the job to a worker goroutine and returns immediately.
func (p *Processor) Dispatch(j *job.Job) {
	go func() {
		ctx := context.Background()
		if p.sem != nil {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer p.sem.Release(1)
		}
		p.run(ctx, j)
	}()
}

func (p *Processor) run(ctx context.Context, j *job.Job) {
	if err := p.process(ctx, j); err != nil {
		p.fail(ctx, j, err)
	}
}

func (p *Processor) process(ctx context.Context, j *job.Job) error {
	if err := p.transition(ctx, j.ID, job.StatusFetching, progressFetching, ""); err != nil {
		return err
	}

	body, contentType, err := p.download(ctx, j.URL)
	if err != nil {
		return err
	}

	docType := extract.DetectType(contentType)
	if err := p.jobs.SetDocumentType(ctx, j.ID, docType); err != nil {
		return err
	}

	switch docType {
	case job.TypeHTML:
		return p.processHTML(ctx, j, body)
	case job.TypePDF:
		return p.processPDF(ctx, j, body)
	default:
		return fmt.Errorf("unsupported document type: %s", contentType)
	}
}

func (p *Processor) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.fetch.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (p *Processor) processHTML(ctx context.Context, j *job.Job, raw []byte) error {
	if err := p.transition(ctx, j.ID, job.StatusProcessing, progressProcessHTML, "extracting content"); err != nil {
		return err
	}

	res, err := extract.HTML(raw)
	if err != nil {
		return err
	}
	if res.Text == "" {
		return errors.New("no text content extracted")
	}

	doc := &document.Document{
		ID:           uuid.New().String(),
		URL:          j.URL,
		Title:        res.Title,
		DocumentType: job.TypeHTML,
		Text:         res.Text,
		HTMLContent:  string(raw),
	}

	return p.finish(ctx, j, doc, progressChunkingHTML, progressEmbeddingHTML)
}

func (p *Processor) processPDF(ctx context.Context, j *job.Job, raw []byte) error {
	if err := p.transition(ctx, j.ID, job.StatusProcessing, progressRenderPDF, "rendering pages"); err != nil {
		return err
	}

	rendered, err := extract.RenderPages(raw, p.cfg.UploadDir)
	if err != nil {
		return err
	}

	if err := p.transition(ctx, j.ID, job.StatusProcessing, progressRecognizePDF, "recognizing text"); err != nil {
		return err
	}

	texts := make([]string, len(rendered))
	var g errgroup.Group
	for i, page := range rendered {
		g.Go(func() error {
			recognized, err := p.ocr.Recognize(ctx, page.Image)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.PageNumber, err)
			}
			texts[i] = recognized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pages := make([]document.Page, len(rendered))
	for i, rp := range rendered {
		pages[i] = document.Page{
			PageNumber: rp.PageNumber,
			ImageURL:   rp.ImageURL,
			Text:       texts[i],
		}
	}

	fullText := strings.TrimSpace(strings.Join(texts, "\n\n"))
	if fullText == "" {
		return errors.New("no text content extracted")
	}

	doc := &document.Document{
		ID:           uuid.New().String(),
		URL:          j.URL,
		Title:        extract.PDFTitle(j.URL),
		DocumentType: job.TypePDF,
		Text:         fullText,
		Pages:        pages,
	}

	return p.finish(ctx, j, doc, progressChunkingPDF, progressEmbeddingPDF)
}

// finish runs the shared tail of both paths: chunk, embed, attribute PDF
// chunks to pages, persist and complete.
func (p *Processor) finish(ctx context.Context, j *job.Job, doc *document.Document, chunkProgress, embedProgress int) error {
	if err := p.transition(ctx, j.ID, job.StatusChunking, chunkProgress, ""); err != nil {
		return err
	}

	parts := text.Split(doc.Text, p.cfg.ChunkSize)
	if len(parts) == 0 {
		return errors.New("no text content extracted")
	}

	if err := p.transition(ctx, j.ID, job.StatusEmbedding, embedProgress, fmt.Sprintf("embedding %d chunks", len(parts))); err != nil {
		return err
	}

	vectors := make([][]float32, len(parts))
	var g errgroup.Group
	for i, part := range parts {
		g.Go(func() error {
			vec, err := p.embedder.Embed(ctx, part)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	doc.Chunks = make([]document.Chunk, len(parts))
	for i, part := range parts {
		doc.Chunks[i] = document.Chunk{Text: part, Embedding: vectors[i]}
	}

	if doc.DocumentType == job.TypePDF {
		attributeChunks(doc)
	} else {
		// HTML documents get a single synthetic page holding everything.
		doc.Pages = []document.Page{{PageNumber: 1, Text: doc.Text, Chunks: doc.Chunks}}
	}

	if err := p.docs.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	p.index(ctx, doc)

	if err := p.jobs.SetDocument(ctx, j.ID, doc.ID); err != nil {
		return err
	}
	if err := p.transition(ctx, j.ID, job.StatusCompleted, progressCompleted, ""); err != nil {
		return err
	}
	p.events.JobCompleted(ctx, j.ID, doc.ID)

	slog.InfoContext(ctx, "job completed", "job_id", j.ID, "document_id", doc.ID, "chunks", len(doc.Chunks))
	return nil
}

// attributeChunks places each chunk on the first page whose recognized text
// contains the chunk's leading characters.
func attributeChunks(doc *document.Document) {
	for _, chunk := range doc.Chunks {
		prefix := chunk.Text
		if len(prefix) > pagePrefixLen {
			prefix = prefix[:pagePrefixLen]
		}
		for i := range doc.Pages {
			if strings.Contains(doc.Pages[i].Text, prefix) {
				doc.Pages[i].Chunks = append(doc.Pages[i].Chunks, chunk)
				break
			}
		}
	}
}

// index pushes chunks into the vector store. Failures are logged; search
// coverage is best effort and never fails a completed job.
func (p *Processor) index(ctx context.Context, doc *document.Document) {
	if p.indexer == nil {
		return
	}
	for i, chunk := range doc.Chunks {
		pageNumber := 0
		for pi := range doc.Pages {
			for _, pc := range doc.Pages[pi].Chunks {
				if pc.Text == chunk.Text {
					pageNumber = doc.Pages[pi].PageNumber
					break
				}
			}
			if pageNumber != 0 {
				break
			}
		}
		err := p.indexer.StoreChunk(ctx, IndexedChunk{
			Content:    chunk.Text,
			Vector:     chunk.Embedding,
			DocumentID: doc.ID,
			URL:        doc.URL,
			Title:      doc.Title,
			PageNumber: pageNumber,
			ChunkIndex: i,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to index chunk", "document_id", doc.ID, "chunk_index", i, "error", err)
		}
	}
}

// transition persists the new status before broadcasting it. ErrTerminal
// means the job was cancelled or failed concurrently; the caller stops.
func (p *Processor) transition(ctx context.Context, jobID string, status job.Status, progress int, message string) error {
	if err := p.jobs.AppendStatus(ctx, jobID, status, progress, message); err != nil {
		return err
	}
	p.events.JobStatus(ctx, jobID, string(status), progress)
	return nil
}

func (p *Processor) fail(ctx context.Context, j *job.Job, cause error) {
	if errors.Is(cause, job.ErrTerminal) {
		slog.InfoContext(ctx, "job already terminal, stopping", "job_id", j.ID)
		return
	}

	slog.ErrorContext(ctx, "job failed", "job_id", j.ID, "url", j.URL, "error", cause)

	if err := p.jobs.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
		if !errors.Is(err, job.ErrTerminal) {
			slog.ErrorContext(ctx, "failed to record job failure", "job_id", j.ID, "error", err)
		}
		return
	}
	p.events.JobFailed(ctx, j.ID, cause.Error())
}
