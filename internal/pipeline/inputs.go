package pipeline

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/oncoatlas/brcascan/internal/fasta"
)

// ParseInputs parses one raw FASTA blob per gene. Inputs are ordered by
// gene symbol.
func ParseInputs(raw map[string][]byte) ([]Input, error) {
	inputs := make([]Input, 0, len(raw))
	for _, gene := range sortedKeys(raw) {
		rec, err := fasta.Parse(bytes.NewReader(raw[gene]))
		if err != nil {
			return nil, fmt.Errorf("parse %s sample: %w", gene, err)
		}
		inputs = append(inputs, Input{Gene: normalizeGene(gene), Sample: rec})
	}
	return inputs, nil
}

// ReadInputs reads one FASTA file per gene.
func ReadInputs(paths map[string]string) ([]Input, error) {
	inputs := make([]Input, 0, len(paths))
	for _, gene := range sortedKeys(paths) {
		rec, err := fasta.ReadFile(paths[gene])
		if err != nil {
			return nil, fmt.Errorf("read %s sample: %w", gene, err)
		}
		inputs = append(inputs, Input{Gene: normalizeGene(gene), Sample: rec})
	}
	return inputs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
