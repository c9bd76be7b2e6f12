package component

import (
	"io"

	"github.com/archbase/archbase-cli/pkg/util"
)

// ExportJSON writes analyses (or any analysis value) as indented JSON.
func ExportJSON(w io.Writer, v any) error {
	return util.WriteJSON(w, v)
}

// WriteJSONFile writes v to path, creating parent directories.
func WriteJSONFile(path string, v any) error {
	return util.WriteJSONFile(path, v)
}

// LoadAnalyses reads a file written by WriteJSONFile with a slice of analyses.
func LoadAnalyses(path string) ([]*ComponentAnalysis, error) {
	var out []*ComponentAnalysis
	if err := util.ReadJSONFile(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
