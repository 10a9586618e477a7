// Package batch holds per-file outcomes of an archive ingestion.
package batch

// FileStatus is the processing outcome of a single file in an upload.
type FileStatus string

// File status values. Skipped files (unrecognized extensions) are not
// failures and never abort the batch.
const (
	StatusIndexed FileStatus = "indexed"
	StatusFailed  FileStatus = "failed"
	StatusSkipped FileStatus = "skipped"
)

// FileResult is the outcome of processing one file.
type FileResult struct {
	name   string
	status FileStatus
	chunks int
	err    error
}

// NewIndexed creates a successful file result with its chunk count.
func NewIndexed(name string, chunks int) FileResult {
	return FileResult{name: name, status: StatusIndexed, chunks: chunks}
}

// NewFailed creates a failed file result.
func NewFailed(name string, err error) FileResult {
	return FileResult{name: name, status: StatusFailed, err: err}
}

// NewSkipped creates a skipped file result.
func NewSkipped(name string) FileResult {
	return FileResult{name: name, status: StatusSkipped}
}

// Name returns the file name as it appeared in the archive.
func (r FileResult) Name() string { return r.name }

// Status returns the processing outcome.
func (r FileResult) Status() FileStatus { return r.status }

// Chunks returns the number of chunks indexed for this file.
func (r FileResult) Chunks() int { return r.chunks }

// Err returns the per-file error, if any.
func (r FileResult) Err() error { return r.err }

// Result aggregates the per-file outcomes of one archive ingestion.
// A partial batch still commits its successful subset; callers distinguish
// "nothing happened" from "partially happened" from "fully happened" by
// inspecting the counts.
type Result struct {
	Files []FileResult
}

// DocumentsIndexed returns the number of files fully indexed.
func (r Result) DocumentsIndexed() int64 {
	var n int64
	for _, f := range r.Files {
		if f.status == StatusIndexed {
			n++
		}
	}
	return n
}

// ChunksAdded returns the total chunks indexed across all files.
func (r Result) ChunksAdded() int64 {
	var n int64
	for _, f := range r.Files {
		n += int64(f.chunks)
	}
	return n
}

// Failed returns the number of files that failed.
func (r Result) Failed() int {
	var n int
	for _, f := range r.Files {
		if f.status == StatusFailed {
			n++
		}
	}
	return n
}

// Skipped returns the number of files skipped.
func (r Result) Skipped() int {
	var n int
	for _, f := range r.Files {
		if f.status == StatusSkipped {
			n++
		}
	}
	return n
}
