package fsutil

// FileStore provides an interface for the local file system operations the
// import pipeline needs around its job-scoped temporary files
type FileStore interface {
	// WriteFile writes data to a file, creating it if necessary
	WriteFile(path string, data []byte) error

	// Remove deletes a file; a path that does not exist is not an error
	Remove(path string) error

	// MakeDirectory creates a new directory and all necessary parents
	MakeDirectory(path string) error
}
