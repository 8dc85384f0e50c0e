package runner

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsacfetch/pkg/cache"
	"vsacfetch/pkg/fetcher"
	"vsacfetch/pkg/oid"
	"vsacfetch/pkg/output"
)

// dry-run fetcher: exercises the full pipeline without a network.
func dryRunPipeline(t *testing.T, outDir string) *Pipeline {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writer, err := output.NewWriter(outDir)
	require.NoError(t, err)
	return &Pipeline{
		Fetcher:    fetcher.New(nil, store, fetcher.Config{DryRun: true}),
		Writer:     writer,
		Definition: true,
		Expansion:  true,
	}
}

func TestPipeline_InvalidIdentifierIsJobScoped(t *testing.T) {
	p := dryRunPipeline(t, t.TempDir())
	pool := NewPool(2)

	inputs := []string{
		"2.16.840.1.113883.3.464.1003.110.12.1001",
		"not-an-oid",
		"urn:oid:2.16.840.1.113762.1.4.1",
	}
	results := pool.Run(context.Background(), inputs, p.Run, nil)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, oid.ErrInvalidOID)
	assert.NoError(t, results[2].Err, "invalid sibling must not affect this job")
	assert.Equal(t, "2.16.840.1.113762.1.4.1", results[2].OID)
}

func TestPipeline_DryRunWritesStubOutput(t *testing.T) {
	outDir := t.TempDir()
	p := dryRunPipeline(t, outDir)

	result := p.Run(context.Background(), Job{
		Input: "2.16.840.1.113883.3.464.1003.110.12.1001",
		Index: 0,
	})

	require.NoError(t, result.Err)
	assert.NotNil(t, result.Definition)
	assert.NotNil(t, result.Expanded)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "definition and expanded stub files")
}
