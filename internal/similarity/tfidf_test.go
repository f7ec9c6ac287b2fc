package similarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineTFIDF_IdenticalTexts(t *testing.T) {
	t.Parallel()

	cos, err := cosineTFIDF(
		"ransomware crew hits european energy grid operators",
		"ransomware crew hits european energy grid operators",
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 1e-9)
}

func TestCosineTFIDF_DisjointTexts(t *testing.T) {
	t.Parallel()

	cos, err := cosineTFIDF(
		"satellite launch window delayed",
		"hospital billing overhaul announced",
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cos, 1e-9)
}

func TestCosineTFIDF_PartialOverlap(t *testing.T) {
	t.Parallel()

	cos, err := cosineTFIDF(
		"phishing campaign targets telecom providers",
		"phishing campaign targets banking customers",
	)
	require.NoError(t, err)
	assert.Greater(t, cos, 0.0)
	assert.Less(t, cos, 1.0)
}

func TestCosineTFIDF_DegenerateInput(t *testing.T) {
	t.Parallel()

	_, err := cosineTFIDF("", "phishing campaign")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDegenerateInput))

	// Stopword-only text is just as degenerate as empty text.
	_, err = cosineTFIDF("the and of", "phishing campaign")
	require.Error(t, err)
}

func TestCosineTFIDF_BigramsSeparateWordOrder(t *testing.T) {
	t.Parallel()

	same, err := cosineTFIDF("supply chain attack", "supply chain attack")
	require.NoError(t, err)
	reordered, err := cosineTFIDF("supply chain attack", "attack chain supply")
	require.NoError(t, err)
	assert.Greater(t, same, reordered, "bigram terms should reward matching word order")
}

func TestBuildVocabulary_DeterministicUnderCap(t *testing.T) {
	t.Parallel()

	countsA := map[string]int{"alpha": 3, "beta": 1}
	countsB := map[string]int{"beta": 2, "gamma": 1}

	first := buildVocabulary(countsA, countsB)
	second := buildVocabulary(countsA, countsB)
	require.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, first)
	assert.True(t, sortIsAscending(first))
}

func sortIsAscending(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestWordSetJaccard_Fallback(t *testing.T) {
	t.Parallel()

	score := wordSetJaccard("acme launches orbital drone", "acme launches drone platform")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
	assert.Zero(t, wordSetJaccard("", "anything at all"))
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.42, clamp01(0.42))
}
