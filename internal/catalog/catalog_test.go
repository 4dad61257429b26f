package catalog

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestSeedIsStableWithinAnHour(t *testing.T) {
	first := Seed("alice@example.com", "2025-03-01-10")
	second := Seed("alice@example.com", "2025-03-01-10")
	require.Equal(t, first, second)
	require.Len(t, first, 8)

	nextHour := Seed("alice@example.com", "2025-03-01-11")
	require.NotEqual(t, first, nextHour)

	otherParticipant := Seed("bob@example.com", "2025-03-01-10")
	require.NotEqual(t, first, otherParticipant)
}

func TestNewRNGIsPure(t *testing.T) {
	a := NewRNG("seed-a")
	b := NewRNG("seed-a")
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Int63(), b.Int63())
	}

	c := NewRNG("seed-b")
	require.NotEqual(t, NewRNG("seed-a").Int63(), c.Int63())
}

func TestResolveRound1SubstitutesSeedAndResult(t *testing.T) {
	cat := New(testLogger())
	seed := "ab12cd34"

	resolved, err := cat.Resolve("sum-of-sales", 1, seed)
	require.NoError(t, err)

	require.Contains(t, resolved.Brief, "Sales Summary "+seed)
	require.NotContains(t, resolved.Brief, "{seed}")
	require.Len(t, resolved.Checks, 3)
	require.NotNil(t, resolved.Result)

	// The total embedded via {result} must equal the generated CSV total.
	generated := generateSalesCSV(seed)
	require.InDelta(t, *generated.Result, *resolved.Result, 0.001)

	want := strconv.FormatFloat(*generated.Result, 'f', -1, 64)
	require.Contains(t, resolved.Checks[2], want)
	require.NotContains(t, resolved.Checks[2], "{result}")
}

func TestResolveGeneratesMatchingCSVAttachment(t *testing.T) {
	cat := New(testLogger())
	seed := "feedf00d"

	resolved, err := cat.Resolve("sum-of-sales", 1, seed)
	require.NoError(t, err)
	require.Len(t, resolved.Attachments, 1)
	require.Equal(t, "data.csv", resolved.Attachments[0].Name)

	url := resolved.Attachments[0].URL
	require.True(t, strings.HasPrefix(url, "data:text/csv;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:text/csv;base64,"))
	require.NoError(t, err)

	lines := strings.Split(string(raw), "\n")
	require.Equal(t, "product,sales,region", lines[0])
	require.GreaterOrEqual(t, len(lines)-1, 4)
	require.LessOrEqual(t, len(lines)-1, 8)

	total := 0.0
	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		require.Len(t, fields, 3)
		value, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
		total += value
	}
	require.InDelta(t, *resolved.Result, total, 0.01)
}

func TestResolveRound2VariantSelectionIsDeterministic(t *testing.T) {
	cat := New(testLogger())
	seed := "cafe0001"

	first, err := cat.Resolve("markdown-to-html", 2, seed)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := cat.Resolve("markdown-to-html", 2, seed)
		require.NoError(t, err)
		require.Equal(t, first.Brief, again.Brief)
		require.Equal(t, first.Checks, again.Checks)
		require.Equal(t, first.Attachments, again.Attachments)
	}
}

func TestSubstituteFallsBackWithoutResult(t *testing.T) {
	out := substitute("total is {result} for {seed}", "ab12cd34", nil)
	require.Equal(t, "total is 0 for ab12cd34", out)
}

func TestMaterializeBuildsPrefixStableTaskID(t *testing.T) {
	cat := New(testLogger())

	r1, err := cat.Materialize("sum-of-sales", "alice@example.com", 1, "http://localhost:8001/notify", "2025-03-01-10")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(r1.Task, "sum-of-sales-"))
	require.Len(t, r1.Task, len("sum-of-sales-")+5)
	require.NotEmpty(t, r1.Nonce)
	require.Equal(t, "sum-of-sales", r1.TemplateID)

	// Round 2 of the same template shares the task id, so the prefix gate
	// in the ledger matches both rounds.
	r2, err := cat.Materialize("sum-of-sales", "alice@example.com", 2, "http://localhost:8001/notify", "2025-03-01-10")
	require.NoError(t, err)
	require.Equal(t, r1.Task, r2.Task)
	require.NotEqual(t, r1.Nonce, r2.Nonce)
	require.NotEqual(t, r1.Brief, r2.Brief)
}

func TestMaterializeRejectsUnknownTemplate(t *testing.T) {
	cat := New(testLogger())

	_, err := cat.Materialize("no-such-template", "alice@example.com", 1, "http://localhost:8001/notify", "")
	require.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestCurrencyRatesAreDeterministicJSON(t *testing.T) {
	first := generateCurrencyRates("ratesseed")
	second := generateCurrencyRates("ratesseed")
	require.Equal(t, first.Content, second.Content)
	require.Contains(t, first.Content, "\"USD\": 1")
	require.Nil(t, first.Result)
}
