// Package suiteconfig loads suite definitions from YAML files into the
// []data.Suite shape the scheduler consumes. It is a config loader, not a
// test-discovery mechanism: it decodes exactly what's on disk, it never
// scans or globs for tests.
package suiteconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"kirk/data"
)

// document is the on-disk shape of a suite-definition file.
type document struct {
	Suites []suiteDoc `yaml:"suites"`
}

type suiteDoc struct {
	Name  string     `yaml:"name"`
	Tests []testDoc  `yaml:"tests"`
}

type testDoc struct {
	Name           string   `yaml:"name"`
	Cmd            string   `yaml:"cmd"`
	Args           []string `yaml:"args"`
	Parallelizable *bool    `yaml:"parallelizable"`
}

// Load reads and decodes the suite-definition file at path into
// []data.Suite, in file order. A test's parallelizable field defaults to
// true when the key is omitted from the document.
func Load(path string) ([]data.Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suiteconfig: reading %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes raw YAML bytes into []data.Suite. It is exported
// separately from Load so callers that already have the bytes (e.g. fetched
// over the network, or embedded) don't need a real file on disk.
func Parse(raw []byte) ([]data.Suite, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("suiteconfig: parsing yaml: %w", err)
	}

	suites := make([]data.Suite, 0, len(doc.Suites))
	for _, sd := range doc.Suites {
		if sd.Name == "" {
			return nil, fmt.Errorf("suiteconfig: suite missing a name")
		}
		suite := data.Suite{Name: sd.Name, Tests: make([]data.Test, 0, len(sd.Tests))}
		for _, td := range sd.Tests {
			if td.Name == "" || td.Cmd == "" {
				return nil, fmt.Errorf("suiteconfig: suite %q has a test missing name or cmd", sd.Name)
			}
			parallelizable := true
			if td.Parallelizable != nil {
				parallelizable = *td.Parallelizable
			}
			suite.Tests = append(suite.Tests, data.Test{
				Name:           td.Name,
				Cmd:            td.Cmd,
				Args:           td.Args,
				Parallelizable: parallelizable,
			})
		}
		suites = append(suites, suite)
	}
	return suites, nil
}
