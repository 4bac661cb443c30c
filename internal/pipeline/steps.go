package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/indextree/internal/crawler"
	"github.com/nao1215/indextree/internal/database"
	"github.com/nao1215/indextree/internal/render"
)

// DocumentSink accepts a finished document.
type DocumentSink interface {
	WriteDocument(doc []byte) error
}

// StreamSink accepts a document written progressively.
type StreamSink interface {
	Stream() (io.WriteCloser, error)
}

// Sink supports both compositions.
type Sink interface {
	DocumentSink
	StreamSink
}

// ArtifactStore persists rendered documents.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, a *database.Artifact) error
}

// WalkStep crawls the tree into job.Root.
type WalkStep struct {
	walker *crawler.Walker
}

// NewWalkStep creates a WalkStep.
func NewWalkStep(w *crawler.Walker) *WalkStep {
	return &WalkStep{walker: w}
}

// Name returns the step name.
func (s *WalkStep) Name() string {
	return "walk"
}

// Do walks job.RootURL.
func (s *WalkStep) Do(ctx context.Context, job *Job) error {
	root, err := s.walker.Walk(ctx, job.RootURL)
	if err != nil {
		return err
	}
	job.Root = root
	job.Stats = root.Count()
	return nil
}

// RenderStep renders job.Root into job.Document.
type RenderStep struct {
	renderer render.Renderer
}

// NewRenderStep creates a RenderStep.
func NewRenderStep(r render.Renderer) *RenderStep {
	return &RenderStep{renderer: r}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do renders the tree.
func (s *RenderStep) Do(_ context.Context, job *Job) error {
	if job.Root == nil {
		return errors.New("render: no tree to render")
	}

	var buf bytes.Buffer
	if _, err := s.renderer.Render(&buf, job.Root); err != nil {
		return fmt.Errorf("failed to render %s: %w", job.Format, err)
	}
	job.Document = buf.Bytes()
	job.ContentType = s.renderer.ContentType()
	return nil
}

// WriteStep hands job.Document to a DocumentSink in one piece.
type WriteStep struct {
	sink DocumentSink
}

// NewWriteStep creates a WriteStep.
func NewWriteStep(sink DocumentSink) *WriteStep {
	return &WriteStep{sink: sink}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes the document.
func (s *WriteStep) Do(_ context.Context, job *Job) error {
	if err := s.sink.WriteDocument(job.Document); err != nil {
		return err
	}
	job.Written = len(job.Document)
	return nil
}

// StreamStep walks the tree while the inline renderer writes to the sink.
type StreamStep struct {
	walker   *crawler.Walker
	renderer *render.InlineRenderer
	sink     StreamSink

	// capture keeps a copy of the streamed document in job.Document.
	capture bool
}

// NewStreamStep creates a StreamStep. With capture set the streamed
// bytes are also kept in job.Document for later steps.
func NewStreamStep(w *crawler.Walker, r *render.InlineRenderer, sink StreamSink, capture bool) *StreamStep {
	return &StreamStep{walker: w, renderer: r, sink: sink, capture: capture}
}

// Name returns the step name.
func (s *StreamStep) Name() string {
	return "stream"
}

// Do walks and streams. On failure the sink keeps everything written up
// to the failing directory.
func (s *StreamStep) Do(ctx context.Context, job *Job) (err error) {
	var out io.Writer
	var closer io.Closer
	if s.sink != nil {
		wc, err := s.sink.Stream()
		if err != nil {
			return err
		}
		out, closer = wc, wc
	}

	var captured bytes.Buffer
	switch {
	case out == nil:
		out = &captured
	case s.capture:
		out = io.MultiWriter(out, &captured)
	}

	defer func() {
		if closer != nil {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	stream := s.renderer.Stream(out)
	defer func() {
		job.Written = stream.Written()
	}()

	if err := stream.Begin(); err != nil {
		return err
	}

	root, err := s.walker.WalkWith(ctx, job.RootURL, stream)
	if err != nil {
		return err
	}
	if err := stream.End(); err != nil {
		return err
	}

	job.Root = root
	job.Stats = root.Count()
	job.ContentType = s.renderer.ContentType()
	if s.sink == nil || s.capture {
		job.Document = captured.Bytes()
	}
	return nil
}

// StoreStep saves job.Document in an ArtifactStore under job.Name.
type StoreStep struct {
	store ArtifactStore
}

// NewStoreStep creates a StoreStep.
func NewStoreStep(store ArtifactStore) *StoreStep {
	return &StoreStep{store: store}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do stores the document.
func (s *StoreStep) Do(ctx context.Context, job *Job) error {
	return s.store.SaveArtifact(ctx, &database.Artifact{
		Name:        job.Name,
		RootURL:     job.RootURL,
		Format:      string(job.Format),
		ContentType: job.ContentType,
		Nodes:       job.Stats.Total(),
		Directories: job.Stats.Directories,
		Leaves:      job.Stats.Leaves,
		Document:    job.Document,
	})
}

// Components are the collaborators of a standard pipeline.
type Components struct {
	// Walker crawls the tree. Required.
	Walker *crawler.Walker

	// Renderer renders the tree. The streaming format requires an
	// *render.InlineRenderer.
	Renderer render.Renderer

	// Sink receives the document. Nil keeps the document in the Job only.
	Sink Sink

	// Store, when set, saves the document as an artifact.
	Store ArtifactStore
}

// ErrStreamingRenderer is returned by Default when a streaming format is
// paired with a renderer that cannot stream.
var ErrStreamingRenderer = errors.New("streaming format requires the inline renderer")

// Default builds the standard pipeline for format.
//
// The document composition is walk, render, write (when a sink is set)
// and store (when a store is set). The streaming composition is stream
// followed by store.
func Default(format render.Format, c Components, opts ...Option) (*Pipeline, error) {
	if c.Walker == nil {
		return nil, errors.New("pipeline: walker is required")
	}

	p := New(opts...)

	if format.IsStreaming() {
		inline, ok := c.Renderer.(*render.InlineRenderer)
		if !ok {
			return nil, ErrStreamingRenderer
		}
		var sink StreamSink
		if c.Sink != nil {
			sink = c.Sink
		}
		p.AddStep(NewStreamStep(c.Walker, inline, sink, c.Store != nil))
	} else {
		p.AddSteps(NewWalkStep(c.Walker), NewRenderStep(c.Renderer))
		if c.Sink != nil {
			p.AddStep(NewWriteStep(c.Sink))
		}
	}

	if c.Store != nil {
		p.AddStep(NewStoreStep(c.Store))
	}

	return p, nil
}
