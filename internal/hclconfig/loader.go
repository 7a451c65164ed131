// Package hclconfig loads training configurations written in HCL into the
// format-agnostic config.Model.
//
// Example configuration:
//
//	dataset {
//	  path      = "housing.csv"
//	  normalize = true
//	}
//
//	input "X" { feed = "features" }
//	input "y" { feed = "targets" }
//	input "b" { value = [0] }
//	input "W" {
//	  shape     = [3, 1]
//	  init      = "randn"
//	  trainable = true
//	}
//
//	linear "l1" {
//	  input   = X
//	  weights = W
//	  bias    = b
//	}
//	sigmoid "s1" { input = l1 }
//	mse "cost" {
//	  y = y
//	  a = s1
//	}
//
// References are bare node names. A node may reference nodes declared later
// or in other files.
package hclconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/born-ml/miniflow/internal/config"
	"github.com/born-ml/miniflow/internal/ctxlog"
)

// Loader is the HCL implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found in paths, in order, and merges their
// blocks into one model. Directories are walked recursively. A relative
// dataset path is resolved against the directory of the file declaring it.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		content, diags := hclFile.Body.Content(rootSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range content.Blocks {
			if err := l.translateBlock(ctx, model, block, filepath.Dir(file)); err != nil {
				return nil, fmt.Errorf("%s: %w", block.DefRange, err)
			}
		}
	}

	if model.Training == nil {
		model.Training = config.DefaultTraining()
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "nodes", len(model.Nodes), "has_dataset", model.Dataset != nil)
	return model, nil
}

// translateBlock decodes one top-level block and merges it into model.
func (l *Loader) translateBlock(ctx context.Context, model *config.Model, block *hcl.Block, dir string) error {
	switch block.Type {
	case "dataset":
		if model.Dataset != nil {
			return fmt.Errorf("duplicate dataset block")
		}
		var b datasetBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		model.Dataset = translateDataset(&b, dir)
		return nil

	case "training":
		if model.Training != nil {
			return fmt.Errorf("duplicate training block")
		}
		var b trainingBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		model.Training = translateTraining(&b)
		return nil
	}

	node, err := l.translateNode(ctx, block)
	if err != nil {
		return err
	}
	model.Nodes = append(model.Nodes, node)
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Unlike a directory, a missing path is an error.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) != ".hcl" {
				return nil, fmt.Errorf("%s is not an .hcl file", path)
			}
			add(path)
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
