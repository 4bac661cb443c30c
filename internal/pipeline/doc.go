// Package pipeline composes a crawl out of steps: walk, render, write
// and store.
//
// Two compositions exist. The document composition walks the whole tree
// first, renders it to memory and only then hands the finished document
// to the sink, so a failed walk writes nothing. The streaming composition
// drives the inline renderer from inside the walk and writes to the sink
// as nodes are discovered; a failed walk leaves a truncated document.
//
// BatchProcessor runs independent crawls concurrently. Every individual
// crawl stays single-threaded.
package pipeline
