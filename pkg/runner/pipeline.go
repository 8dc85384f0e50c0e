package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"vsacfetch/pkg/fetcher"
	"vsacfetch/pkg/oid"
	"vsacfetch/pkg/output"
)

// Pipeline is the per-identifier sequence each worker runs: normalize the
// identifier, fetch the definition and/or expansion, and write the
// results. Any stage failure is recorded on the job's Result; it never
// escapes the job boundary.
type Pipeline struct {
	// Fetcher retrieves definitions and expansions.
	Fetcher *fetcher.Fetcher

	// Writer persists fetched resources. Nil disables output files.
	Writer *output.Writer

	// Version optionally pins a valueSetVersion for every job.
	Version string

	// Definition and Expansion select which resources to fetch. At least
	// one must be set.
	Definition bool
	Expansion  bool
}

// Run executes the pipeline for one job.
func (p *Pipeline) Run(ctx context.Context, job Job) Result {
	result := Result{Input: job.Input}

	canonical, err := oid.Normalize(job.Input)
	if err != nil {
		result.Err = err
		return result
	}
	result.OID = canonical

	if p.Definition {
		def, err := p.Fetcher.Definition(ctx, canonical, p.Version)
		if err != nil {
			result.Err = err
			return result
		}
		result.Definition = def
		result.Version = def.Version
	}

	if p.Expansion {
		expanded, err := p.Fetcher.Expansion(ctx, canonical, p.Version)
		if err != nil {
			result.Err = err
			return result
		}
		result.Expanded = expanded
		if result.Version == "" {
			result.Version = expanded.Version
		}
	}

	if result.Version == "" {
		result.Version = p.Version
	}

	if p.Writer != nil {
		if result.Definition != nil {
			if err := p.Writer.Write(canonical, result.Version, output.ModeDefinition, result.Definition); err != nil {
				result.Err = fmt.Errorf("write definition: %w", err)
				return result
			}
		}
		if result.Expanded != nil {
			if err := p.Writer.Write(canonical, result.Version, output.ModeExpanded, result.Expanded); err != nil {
				result.Err = fmt.Errorf("write expansion: %w", err)
				return result
			}
		}
	}

	log.Debug().
		Str("oid", canonical).
		Str("version", result.Version).
		Msg("Job pipeline complete")

	return result
}
