package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/fasta"
)

// execute runs the CLI with fresh global configuration.
func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// workspace holds references, samples and a config file pointing at them.
type workspace struct {
	dir    string
	config string
	brca1  string
	brca2  string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	ref1 := writeFile(t, dir, "ref1.fa", ">BRCA1 ref\nATCGATCGGA\nTCCTAGGCTA\n")
	ref2 := writeFile(t, dir, "ref2.fa", ">BRCA2 ref\nGGCCTTAAGGCCTTAAGGCC\n")

	ws := workspace{
		dir:   dir,
		brca1: writeFile(t, dir, "brca1.fa", ">patient BRCA1\nATCAATCGGATCCTAGGCTA\n"),
		brca2: writeFile(t, dir, "brca2.fa", ">patient BRCA2\nGGCCTTAAGGCCTTAAGGCC\n"),
	}
	ws.config = writeFile(t, dir, "config.yaml", "references:\n  brca1: "+ref1+"\n  brca2: "+ref2+"\nregistry:\n  enabled: false\n")
	return ws
}

func TestVersion(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "brcascan version dev (none) built unknown\n", out)
}

func TestUsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"version", "--nope"}},
		{"analyze missing args", []string{"analyze", "only-one.fa"}},
		{"lookup without identifiers", []string{"lookup"}},
		{"bad analyze format", []string{"analyze", "--format", "xml", "a.fa", "b.fa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestAnalyze_JSON(t *testing.T) {
	ws := newWorkspace(t)

	code, out, stderr := execute(t, "--config", ws.config, "analyze", "--format", "json", ws.brca1, ws.brca2)
	require.Equal(t, ExitSuccess, code, stderr)

	var res struct {
		Genes []struct {
			Gene       string `json:"gene"`
			SNVCount   int    `json:"snv_count"`
			SNVPreview []struct {
				Position int `json:"position"`
			} `json:"snv_preview"`
		} `json:"genes"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Genes, 2)
	assert.Equal(t, "BRCA1", res.Genes[0].Gene)
	assert.Equal(t, 1, res.Genes[0].SNVCount)
	assert.Equal(t, 4, res.Genes[0].SNVPreview[0].Position)
	assert.Equal(t, 0, res.Genes[1].SNVCount)
	assert.True(t, strings.HasPrefix(res.Summary, "Detected 1 SNV(s) across analyzed genes (BRCA1: 1, BRCA2: 0)."))
}

func TestAnalyze_MissingReference(t *testing.T) {
	ws := newWorkspace(t)
	cfg := writeFile(t, ws.dir, "partial.yaml", "references:\n  brca1: "+filepath.Join(ws.dir, "ref1.fa")+"\n")

	code, out, _ := execute(t, "--config", cfg, "analyze", "--offline", ws.brca1, ws.brca2)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "not analyzed")
	assert.Contains(t, out, "BRCA2: not analyzed")
}

func TestAnalyze_EmptySampleRejected(t *testing.T) {
	ws := newWorkspace(t)
	empty := writeFile(t, ws.dir, "empty.fa", ">nothing here\n")

	code, _, stderr := execute(t, "--config", ws.config, "analyze", empty, ws.brca2)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "empty sequence")

	code, out, _ := execute(t, "--config", ws.config, "analyze", "--allow-empty", empty, ws.brca2)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Detected 20 SNV(s) across analyzed genes (BRCA1: 20, BRCA2: 0).")
}

func TestAnalyze_CustomCatalogAndStore(t *testing.T) {
	ws := newWorkspace(t)

	sample := fasta.NewSequence("ATCAATCGGATCCTAGGCTA")
	var buf bytes.Buffer
	require.NoError(t, catalog.WriteYAML(&buf, []catalog.Entry{{
		Gene:          "BRCA1",
		Code:          "BRCA1_185delAG",
		Transcript:    "NM_007294.4",
		HGVSc:         "c.68_69delAG",
		Pathogenicity: "Pathogenic",
		Fingerprint:   catalog.Compute(sample),
	}}))
	catPath := writeFile(t, ws.dir, "catalog.yaml", buf.String())
	storePath := filepath.Join(ws.dir, "db", "analyses.duckdb")

	cfg := writeFile(t, ws.dir, "full.yaml",
		"references:\n  brca1: "+filepath.Join(ws.dir, "ref1.fa")+"\n  brca2: "+filepath.Join(ws.dir, "ref2.fa")+"\n"+
			"catalog:\n  path: "+catPath+"\n"+
			"registry:\n  enabled: false\n")

	code, out, stderr := execute(t, "--config", cfg, "analyze", "--store", storePath, "--patient", "P-1", ws.brca1, ws.brca2)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, out, "BRCA1/BRCA2 Variant Report: P-1")
	assert.Contains(t, out, "BRCA1 BRCA1_185delAG (c.68_69delAG): Pathogenic; associated conditions: Hereditary breast-ovarian cancer syndrome (BRCA1).")

	m := regexp.MustCompile(`Saved analysis (\S+) to`).FindStringSubmatch(stderr)
	require.Len(t, m, 2, stderr)
	id := m[1]

	code, out, _ = execute(t, "--config", cfg, "history", "list", "--store", storePath, "--patient", "P-1")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, id)

	code, out, _ = execute(t, "--config", cfg, "history", "hits", "--store", storePath, "BRCA1")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "BRCA1_185delAG")
	assert.Contains(t, out, "fingerprint")

	code, out, _ = execute(t, "--config", cfg, "history", "show", "--store", storePath, "--format", "tab", id)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "BRCA1\t4\tG\tA\tSNV\tc.4G>A")
}

func TestHistory_NoStore(t *testing.T) {
	ws := newWorkspace(t)
	code, _, stderr := execute(t, "--config", ws.config, "history", "list")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "no analysis store configured")
}

func TestLookup_Offline(t *testing.T) {
	ws := newWorkspace(t)

	code, out, _ := execute(t, "--config", ws.config, "lookup", "--offline", "NM_007294.4:c.68_69delAG")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Significance:  Pathogenic")
	assert.Contains(t, out, "Origin:        local_override")

	code, out, _ = execute(t, "--config", ws.config, "lookup", "--offline", "--format", "json", "NM_000059.4:c.5946delT", "NM_000059.4:c.1A>G")
	require.Equal(t, ExitSuccess, code)
	var anns []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &anns))
	require.Len(t, anns, 2)
	assert.Equal(t, "Pathogenic", anns[0]["clinical_significance"])
	assert.Equal(t, "", anns[1]["clinical_significance"])
}

func TestCatalogList(t *testing.T) {
	ws := newWorkspace(t)

	code, out, _ := execute(t, "--config", ws.config, "catalog", "list")
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, out, "BRCA1_185delAG")
	assert.Contains(t, out, "798d0464293e369cd14b7da34754efc9")

	code, out, _ = execute(t, "--config", ws.config, "catalog", "list", "--format", "yaml")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "variants:")
	assert.Contains(t, out, "md5: 798d0464293e369cd14b7da34754efc9")
}

func TestCatalogFingerprint(t *testing.T) {
	ws := newWorkspace(t)

	code, out, _ := execute(t, "--config", ws.config, "catalog", "fingerprint", ws.brca1)
	require.Equal(t, ExitSuccess, code)

	fp := catalog.Compute(fasta.NewSequence("ATCAATCGGATCCTAGGCTA"))
	assert.Contains(t, out, ws.brca1+"\t20\t"+fp.Hash+"\t-")
}

func TestConfigSetGet(t *testing.T) {
	ws := newWorkspace(t)
	cfg := filepath.Join(ws.dir, "new-config.yaml")

	code, out, stderr := execute(t, "--config", cfg, "config", "set", "analysis.preview_limit", "10")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, out, "Set analysis.preview_limit = 10")

	code, out, _ = execute(t, "--config", cfg, "config", "get", "analysis.preview_limit")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "10\n", out)

	code, _, _ = execute(t, "--config", cfg, "config", "get", "no.such.key")
	assert.Equal(t, ExitError, code)

	code, out, _ = execute(t, "--config", cfg, "config")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "preview_limit")
}

func TestConfigSet_Validation(t *testing.T) {
	ws := newWorkspace(t)
	cfg := filepath.Join(ws.dir, "checked.yaml")

	rejected := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "analysis.previewlimit", "5"},
		{"int", "analysis.preview_limit", "fifty"},
		{"duration", "registry.timeout", "soon"},
		{"non-positive duration", "registry.timeout", "0s"},
		{"retries out of range", "registry.retries", "3"},
		{"bool", "registry.enabled", "maybe"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, "--config", cfg, "config", "set", tt.key, tt.value)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stderr, tt.key)
			_, err := os.Stat(cfg)
			assert.True(t, os.IsNotExist(err), "config file written for rejected value")
		})
	}

	accepted := []struct {
		key   string
		value string
		want  string
	}{
		{"registry.timeout", "20s", "20s"},
		{"registry.retries", "0", "0"},
		{"analysis.require_sample", "no", "false"},
		{"analysis.preview_limit", "-1", "-1"},
	}
	for _, tt := range accepted {
		code, _, stderr := execute(t, "--config", cfg, "config", "set", tt.key, tt.value)
		require.Equal(t, ExitSuccess, code, stderr)

		code, out, _ := execute(t, "--config", cfg, "config", "get", tt.key)
		require.Equal(t, ExitSuccess, code)
		assert.Equal(t, tt.want+"\n", out, tt.key)
	}
}

func TestLookup_OverridesFileExtendsDefaults(t *testing.T) {
	ws := newWorkspace(t)
	overrides := writeFile(t, ws.dir, "overrides.yaml",
		"NM_007294.4:c.1A>G:\n  clinical_significance: Likely pathogenic\n  conditions: [Breast cancer]\n")
	cfg := writeFile(t, ws.dir, "overrides-config.yaml",
		"registry:\n  enabled: false\nannotation:\n  overrides_path: "+overrides+"\n")

	code, out, stderr := execute(t, "--config", cfg, "lookup", "--format", "json",
		"NM_007294.4:c.1A>G", "NM_007294.4:c.68_69delAG")
	require.Equal(t, ExitSuccess, code, stderr)

	var anns []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &anns))
	require.Len(t, anns, 2)
	assert.Equal(t, "Likely pathogenic", anns[0]["clinical_significance"])
	assert.Equal(t, "Pathogenic", anns[1]["clinical_significance"])
}
