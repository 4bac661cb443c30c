package pipeline

import (
	"time"

	"github.com/nao1215/indextree/internal/model"
	"github.com/nao1215/indextree/internal/render"
)

// Job carries one crawl through the pipeline. Steps read and fill it in
// order.
type Job struct {
	// RootURL is the URL the walk starts from.
	RootURL string

	// Name is the artifact name used when the document is stored.
	Name string

	// Format is the output format.
	Format render.Format

	// Root is the crawled tree. It stays nil when the walk fails.
	Root *model.Node

	// Stats summarizes Root.
	Stats model.Stats

	// Document is the rendered document. For the streaming composition
	// it is only kept when a later step needs it.
	Document []byte

	// ContentType is the MIME type of Document.
	ContentType string

	// Written is the number of document bytes that reached the sink.
	Written int

	// Started is when the pipeline began executing.
	Started time.Time

	// Elapsed is the total execution time.
	Elapsed time.Duration

	// Err is the error that stopped the pipeline, if any.
	Err error

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string
}

// NewJob creates a Job for rootURL.
func NewJob(rootURL, name string, format render.Format) *Job {
	return &Job{
		RootURL:        rootURL,
		Name:           name,
		Format:         format,
		PerformedSteps: make([]string, 0),
	}
}

// Succeeded reports whether the job finished without error.
func (j *Job) Succeeded() bool {
	return j.Err == nil
}
