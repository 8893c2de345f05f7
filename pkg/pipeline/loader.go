// Package pipeline loads and validates pipeline definition files.
package pipeline

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a pipeline definition from a YAML file and validates it.
// Relative workdir paths are resolved against the file's directory.
func Load(path string) (*model.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read pipeline file", goerr.V("path", path))
	}

	p, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid pipeline file", goerr.V("path", path))
	}

	base := filepath.Dir(path)
	if p.Workdir == "" {
		p.Workdir = base
	} else if !filepath.IsAbs(p.Workdir) {
		p.Workdir = filepath.Join(base, p.Workdir)
	}

	return p, nil
}

// Parse decodes and validates a pipeline definition.
func Parse(data []byte) (*model.Pipeline, error) {
	var p model.Pipeline

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse pipeline YAML")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}
