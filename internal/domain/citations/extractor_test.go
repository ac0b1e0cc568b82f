package citations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifiers(t *testing.T) {
	ext := NewExtractor()

	text := "See PMID: 12345678 and doi:10.1001/jama.2023.1234 plus https://pubmed.ncbi.nlm.nih.gov/99"
	got := ext.Extract(text)
	require.Len(t, got, 3)

	assert.Equal(t, KindPMID, got[0].Kind)
	assert.Equal(t, "12345678", got[0].Identifier)

	assert.Equal(t, KindDOI, got[1].Kind)
	assert.Equal(t, "10.1001/jama.2023.1234", got[1].Identifier)

	assert.Equal(t, KindURL, got[2].Kind)
}

func TestExtractMentions(t *testing.T) {
	ext := NewExtractor()

	got := ext.Extract("As shown by Smith et al. (2023), treatment works. Older data [12] agrees.")
	require.Len(t, got, 2)
	assert.Equal(t, KindMention, got[0].Kind)
	assert.Contains(t, got[0].Raw, "Smith et al.")
	assert.Equal(t, KindMention, got[1].Kind)
	assert.Equal(t, "[12]", got[1].Raw)
}

func TestExtractMalformedDOIDegradesToMention(t *testing.T) {
	ext := NewExtractor()

	got := ext.Extract("per doi:not-a-real-handle the result holds")
	require.Len(t, got, 1)
	assert.Equal(t, KindMention, got[0].Kind)
	assert.Empty(t, got[0].Identifier)
}

func TestExtractIsDeterministicAndOrdered(t *testing.T) {
	ext := NewExtractor()
	text := "B ref (Jones, 2020) then PMID 111222 then (Jones, 2020) again"

	first := ext.Extract(text)
	second := ext.Extract(text)
	assert.Equal(t, first, second)

	// duplicate raw kept once, order by position
	require.Len(t, first, 2)
	assert.Less(t, first[0].Position, first[1].Position)
	assert.Equal(t, KindPMID, first[1].Kind)
}

func TestExtractEmptyAndShortTokens(t *testing.T) {
	ext := NewExtractor()
	assert.Nil(t, ext.Extract(""))
	assert.Empty(t, ext.Extract("nothing to cite here"))
}

func TestCompleteness(t *testing.T) {
	full := Citation{
		Raw:        "Smith et al. (2023) Journal of Medicine, doi:10.1000/x",
		Kind:       KindDOI,
		Identifier: "10.1000/x",
	}
	assert.Equal(t, 10, Completeness(full))

	bare := Citation{Raw: "[12]", Kind: KindMention}
	assert.Equal(t, 0, Completeness(bare))

	yearOnly := Citation{Raw: "(Jones, 2020)", Kind: KindMention}
	assert.Equal(t, 2, Completeness(yearOnly))
}
