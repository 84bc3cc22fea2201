package dataset

import (
	"fmt"
	"strings"
)

// NotFoundError reports a dataset file that does not exist at its resolved path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Path
}

// MissingColumnsError reports required columns absent from a dataset.
type MissingColumnsError struct {
	Dataset string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("[%s] missing required columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// UnknownDatasetError reports a name that is not in the schema registry.
type UnknownDatasetError struct {
	Name string
}

func (e *UnknownDatasetError) Error() string {
	return "unknown dataset: " + e.Name
}
