package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cadenzalab/cadenza/internal/compiler"
	"github.com/cadenzalab/cadenza/internal/ir"
)

// conceptFile is the YAML shape of a concept declarations file:
//
//	concepts:
//	  - name: ArticlePublish
//	    actions: [create, publish]
type conceptFile struct {
	Concepts []ir.ConceptDecl `yaml:"concepts"`
}

// LoadConcepts reads concept declarations from a YAML file.
func LoadConcepts(path string) ([]ir.ConceptDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read concepts %s: %w", path, err)
	}
	var file conceptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse concepts %s: %w", path, err)
	}
	if len(file.Concepts) == 0 {
		return nil, fmt.Errorf("no concepts declared in %s", path)
	}
	return file.Concepts, nil
}

// LoadSyncs compiles every .cue file in a directory, in filename
// order so registration order is reproducible.
func LoadSyncs(dir string) ([]ir.Sync, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sync dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue files in %s", dir)
	}
	sort.Strings(files)

	var syncs []ir.Sync
	for _, name := range files {
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		compiled, err := compiler.CompileString(string(src), path)
		if err != nil {
			return nil, err
		}
		syncs = append(syncs, compiled...)
	}
	return syncs, nil
}
