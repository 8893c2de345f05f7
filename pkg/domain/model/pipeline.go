package model

import (
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// MatrixEntry is one (runtime version, configuration) pair of the test
// matrix. Each entry runs as an independent unit.
type MatrixEntry struct {
	// Runtime is the interpreter version identifier, e.g. "3.7".
	Runtime string `yaml:"runtime"`

	// Config is the configuration name selecting a test profile,
	// e.g. "py37" or "lint3". Unique within a pipeline.
	Config string `yaml:"config"`

	// Env holds additional environment variables for this entry only.
	Env map[string]string `yaml:"env,omitempty"`
}

// PublishSpec controls which entries have their result artifact published
// and under what title.
type PublishSpec struct {
	// Prefix is the test-like configuration name prefix. Only entries
	// whose Config starts with this prefix are published.
	Prefix string `yaml:"prefix"`

	// Title is the human-readable report title. The placeholders
	// {runtime} and {config} are interpolated per entry.
	Title string `yaml:"title"`
}

// DefaultPublishPrefix matches the conventional "pyXY" test profiles.
const DefaultPublishPrefix = "py"

// Matches reports whether results for the given configuration name should
// be published.
func (s PublishSpec) Matches(config string) bool {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return strings.HasPrefix(config, prefix)
}

// RenderTitle expands the title template for one matrix entry.
func (s PublishSpec) RenderTitle(entry MatrixEntry) string {
	title := s.Title
	if title == "" {
		title = "Test results for {runtime}"
	}
	title = strings.ReplaceAll(title, "{runtime}", entry.Runtime)
	title = strings.ReplaceAll(title, "{config}", entry.Config)
	return title
}

// DeploySpec describes the package-index deployment performed by the
// release gate on a qualifying tag push.
type DeploySpec struct {
	// IndexURL is the upload endpoint of the package index.
	IndexURL string `yaml:"index_url"`

	// Artifacts is a glob (relative to the pipeline workdir) selecting
	// the distribution files to upload.
	Artifacts string `yaml:"artifacts"`

	// TagPattern restricts which tag names qualify for deployment,
	// path.Match syntax. Empty matches every tag.
	TagPattern string `yaml:"tag_pattern,omitempty"`
}

// MatchesTag reports whether the tag name qualifies for deployment.
func (s DeploySpec) MatchesTag(tag string) bool {
	if s.TagPattern == "" {
		return tag != ""
	}
	ok, err := path.Match(s.TagPattern, tag)
	return err == nil && ok
}

// Pipeline is the static definition of one test-matrix run, loaded from a
// YAML pipeline file.
type Pipeline struct {
	// Name identifies the pipeline in logs and reports.
	Name string `yaml:"name"`

	// Workdir is the directory the commands run in. Defaults to the
	// directory of the pipeline file.
	Workdir string `yaml:"workdir,omitempty"`

	// RuntimeCommand is the interpreter command template; {version} is
	// replaced by the entry's runtime version. Defaults to
	// "python{version}".
	RuntimeCommand string `yaml:"runtime_command,omitempty"`

	// ProfileVar is the environment variable that receives the entry's
	// configuration name, selecting the test profile. Defaults to
	// "TOXENV".
	ProfileVar string `yaml:"profile_var,omitempty"`

	// Env holds environment variables shared by all entries.
	Env map[string]string `yaml:"env,omitempty"`

	// Install is the dependency installation command sequence, run
	// before the test command for every entry.
	Install []string `yaml:"install,omitempty"`

	// Test is the fixed test invocation command line.
	Test string `yaml:"test"`

	// Coverage is an optional coverage-upload command, run after a
	// successful test command for published (test-like) entries only.
	Coverage string `yaml:"coverage,omitempty"`

	// Artifact is the fixed path (relative to Workdir) of the structured
	// result report the test command writes.
	Artifact string `yaml:"artifact,omitempty"`

	Matrix  []MatrixEntry `yaml:"matrix"`
	Publish PublishSpec   `yaml:"publish,omitempty"`
	Deploy  *DeploySpec   `yaml:"deploy,omitempty"`
}

const (
	defaultRuntimeCommand = "python{version}"
	defaultProfileVar     = "TOXENV"
)

// RuntimeCommandFor resolves the interpreter command name for a runtime
// version.
func (p *Pipeline) RuntimeCommandFor(version string) string {
	tmpl := p.RuntimeCommand
	if tmpl == "" {
		tmpl = defaultRuntimeCommand
	}
	return strings.ReplaceAll(tmpl, "{version}", version)
}

// ProfileVarName returns the environment variable used as the profile
// selector.
func (p *Pipeline) ProfileVarName() string {
	if p.ProfileVar == "" {
		return defaultProfileVar
	}
	return p.ProfileVar
}

// CommandsFor returns the fixed command sequence for one matrix entry:
// install steps, the test command, and the coverage command when the entry
// is a published test profile.
func (p *Pipeline) CommandsFor(entry MatrixEntry) []string {
	commands := make([]string, 0, len(p.Install)+2)
	commands = append(commands, p.Install...)
	commands = append(commands, p.Test)
	if p.Coverage != "" && p.Publish.Matches(entry.Config) {
		commands = append(commands, p.Coverage)
	}
	return commands
}

// Validate checks the static invariants of the pipeline definition.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return goerr.New("pipeline name is required")
	}
	if p.Test == "" {
		return goerr.New("test command is required", goerr.V("pipeline", p.Name))
	}

	seen := make(map[string]struct{}, len(p.Matrix))
	for _, entry := range p.Matrix {
		if entry.Config == "" {
			return goerr.New("matrix entry has empty configuration name",
				goerr.V("runtime", entry.Runtime))
		}
		if entry.Runtime == "" {
			return goerr.New("matrix entry has empty runtime version",
				goerr.V("config", entry.Config))
		}
		if _, ok := seen[entry.Config]; ok {
			return goerr.New("duplicate configuration name in matrix",
				goerr.V("config", entry.Config))
		}
		seen[entry.Config] = struct{}{}
	}

	if p.Deploy != nil {
		if p.Deploy.IndexURL == "" {
			return goerr.New("deploy.index_url is required when deploy is set",
				goerr.V("pipeline", p.Name))
		}
		if p.Deploy.Artifacts == "" {
			return goerr.New("deploy.artifacts is required when deploy is set",
				goerr.V("pipeline", p.Name))
		}
	}

	return nil
}
