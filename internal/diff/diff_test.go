package diff

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoatlas/brcascan/internal/fasta"
)

func TestDiff_SingleSNV(t *testing.T) {
	res := Diff("ATCGATCG", "ATCAATCG", "BRCA1", DefaultPreviewLimit)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, VariantCall{
		Gene:     "BRCA1",
		Position: 4,
		Ref:      "G",
		Alt:      "A",
		Kind:     KindSNV,
	}, res.Calls[0])
	assert.Equal(t, "c.4G>A", res.Calls[0].HGVSc())
}

func TestDiff_UnnormalizedInput(t *testing.T) {
	res := Diff(fasta.Sequence("acgt"), fasta.Sequence("ACGa"), "BRCA1", DefaultPreviewLimit)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, "T", res.Calls[0].Ref)
	assert.Equal(t, "A", res.Calls[0].Alt)
	assert.Equal(t, "c.4T>A", res.Calls[0].HGVSc())
}

func TestDiff_Cases(t *testing.T) {
	tests := []struct {
		name      string
		ref       fasta.Sequence
		sample    fasta.Sequence
		limit     int
		wantCalls int
		wantTotal int
	}{
		{"identical", "ACGTACGT", "ACGTACGT", 10, 0, 0},
		{"both empty", "", "", 10, 0, 0},
		{"empty reference", "", "ACGT", 10, 0, 4},
		{"empty sample", "ACGTAC", "", 10, 0, 6},
		{"longer sample same prefix", "ACGT", "ACGTTT", 10, 0, 2},
		{"shorter sample same prefix", "ACGTTT", "ACG", 10, 0, 3},
		{"mismatch plus tail", "AAAA", "ATAAGG", 10, 1, 3},
		{"all mismatches", "AAAA", "CCCC", 10, 4, 4},
		{"truncated preview", "AAAAAAAA", "CCCCCCCC", 3, 3, 8},
		{"zero preview", "AAAA", "CCCC", 0, 0, 4},
		{"unbounded preview", "AAAAAAAA", "CCCCCCCC", -1, 8, 8},
		{"case-insensitive", "acgt", "ACGT", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Diff(tt.ref, tt.sample, "BRCA2", tt.limit)
			assert.Len(t, res.Calls, tt.wantCalls)
			assert.Equal(t, tt.wantTotal, res.Total)
		})
	}
}

func TestDiff_DeletionShiftsRemainder(t *testing.T) {
	// A two-base deletion shows up as mismatches after the event plus the
	// tail length penalty.
	ref := fasta.Sequence("ACGAGTTCAC")
	sample := fasta.Sequence("ACGTTCAC")

	res := Diff(ref, sample, "BRCA1", -1)
	assert.Equal(t, len(res.Calls)+2, res.Total)
	assert.NotEmpty(t, res.Calls)
	assert.Equal(t, 4, res.Calls[0].Position)
}

func TestDiff_PositionsAreOneBased(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ref := randomSequence(rng, 200)

	for trial := 0; trial < 50; trial++ {
		p := rng.Intn(len(ref))
		sample := []byte(ref)
		sample[p] = mutate(sample[p])

		res := Diff(ref, fasta.Sequence(sample), "BRCA1", DefaultPreviewLimit)
		require.Len(t, res.Calls, 1)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, p+1, res.Calls[0].Position)
		assert.Equal(t, string(ref[p]), res.Calls[0].Ref)
		assert.Equal(t, string(sample[p]), res.Calls[0].Alt)
	}
}

func TestDiff_SelfComparison(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		s := randomSequence(rng, 1+rng.Intn(500))
		res := Diff(s, s, "BRCA2", DefaultPreviewLimit)
		assert.Empty(t, res.Calls)
		assert.Zero(t, res.Total)
	}
}

func TestDiff_TailPenaltyOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		s := randomSequence(rng, 100)
		cut := rng.Intn(100)
		res := Diff(s, s[:cut], "BRCA1", DefaultPreviewLimit)
		assert.Empty(t, res.Calls)
		assert.Equal(t, 100-cut, res.Total)

		res = Diff(s[:cut], s, "BRCA1", DefaultPreviewLimit)
		assert.Equal(t, 100-cut, res.Total)
	}
}

func randomSequence(rng *rand.Rand, n int) fasta.Sequence {
	const alphabet = "ACGT"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return fasta.Sequence(b.String())
}

func mutate(b byte) byte {
	if b == 'A' {
		return 'C'
	}
	return 'A'
}
