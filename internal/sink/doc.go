// Package sink persists rendered documents.
//
// A File is written in one of two ways. WriteDocument stores a complete
// document atomically through a temporary file and a rename, so readers
// never observe a partial file. Stream opens the destination for
// progressive writes; if the producer fails midway the file keeps
// whatever was written.
package sink
