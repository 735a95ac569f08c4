// Package output serializes the provider dataset to the map artifact.
package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/openbucharest/medmap-cli/internal/model"
)

// Write serializes the dataset to path as an indented JSON array, replacing
// any previous artifact. The file is written to a temp name in the same
// directory and renamed into place, so a failed run never leaves a partial
// artifact behind.
func Write(path string, dataset model.Dataset) error {
	if dataset == nil {
		dataset = model.Dataset{} // an empty run still emits "[]"
	}

	data, err := json.MarshalIndent(dataset, "", "    ")
	if err != nil {
		return eris.Wrap(err, "output: marshal dataset")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "output: create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "output: write artifact")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "output: close artifact")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "output: rename artifact to %s", path)
	}
	return nil
}

// Read loads an artifact back into a Dataset. Used by tests and the status
// report.
func Read(path string) (model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "output: read artifact %s", path)
	}
	var dataset model.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, eris.Wrapf(err, "output: parse artifact %s", path)
	}
	return dataset, nil
}
