package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
capex_items:
  - id: i1
    name: Transformer
    p10: 100000
    p90: 200000
    base_date: "2026-01-01"
    owner: alice
    discipline: electrical
    phase: design
    location: site-a
risks:
  - id: r1
    name: Weather delay
    probability: 0.3
    p10_impact: 10000
    p90_impact: 50000
    risk_category: weather
    risk_log: log-1
capex_actions:
  - id: a1
    item_id: i1
    kind: adjustment
    p10: 1000
    p90: 2000
    effective_date: "2026-02-01"
lookups:
  phases:
    - id: design
      name: Design
      phase_order: 1
`

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	ds, err := LoadYAML(path)
	require.NoError(t, err)

	require.Len(t, ds.Items, 1)
	assert.Equal(t, "Transformer", ds.Items[0].Name)
	require.Len(t, ds.Risks, 1)
	assert.Equal(t, 0.3, ds.Risks[0].Probability)
	require.Len(t, ds.ItemActions, 1)
	assert.Equal(t, 1, ds.Lookups.Phases["design"].PhaseOrder)
}

func TestLoadYAMLRejectsMissingBaseDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`capex_items:
  - id: i1
    p10: 1
    p90: 2
`), 0o644))

	_, err := LoadYAML(path)
	assert.Error(t, err)
}
