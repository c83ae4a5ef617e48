package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/blanketorder/internal/fx"
)

type stubRates struct {
	imported []fx.Rate
	err      error
	rate     float64
	lookups  []string
}

func (s *stubRates) Import(ctx context.Context, rates []fx.Rate) error {
	if s.err != nil {
		return s.err
	}
	s.imported = append(s.imported, rates...)
	return nil
}

func (s *stubRates) ExchangeRate(ctx context.Context, date, from, to, args string) (float64, error) {
	s.lookups = append(s.lookups, strings.Join([]string{date, from, to, args}, "|"))
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

const sheet = `
rates:
  - {date: 2024-03-01, from: USD, to: INR, rate: 83.1, for_selling: true}
  - {date: 2024-03-04, from: USD, to: INR, rate: 83.4, for_selling: true, for_buying: true}
  - {date: 2024-02-28, from: EUR, to: INR, rate: 90.2, for_buying: true}
`

func TestImportCommandJSON(t *testing.T) {
	store := &stubRates{}
	cli, err := NewFXOpsCLI(store)
	require.NoError(t, err)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := cli.ImportCommand(context.Background(), FXImportOptions{
		Source:     strings.NewReader(sheet),
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, store.imported, 3)

	var summary FXImportSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, FXImportSummary{Imported: 3, Pairs: []string{"EURINR", "USDINR"}, From: "2024-02-28", To: "2024-03-04"}, summary)
}

func TestImportCommandHuman(t *testing.T) {
	cli, err := NewFXOpsCLI(&stubRates{})
	require.NoError(t, err)
	stdout := new(bytes.Buffer)
	code := cli.ImportCommand(context.Background(), FXImportOptions{Source: strings.NewReader(sheet), Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	assert.Equal(t, "Imported 3 rate(s) for EURINR, USDINR between 2024-02-28 and 2024-03-04\n", stdout.String())
}

func TestImportCommandFailures(t *testing.T) {
	cli, err := NewFXOpsCLI(&stubRates{err: errors.New("db down")})
	require.NoError(t, err)

	cases := map[string]FXImportOptions{
		"no path":    {},
		"bad yaml":   {Source: strings.NewReader("rates: [")},
		"empty":      {Source: strings.NewReader("rates: []")},
		"store fail": {Source: strings.NewReader(sheet)},
		"missing":    {Path: "does-not-exist.yaml"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			opts.Stdout = new(bytes.Buffer)
			opts.Stderr = stderr
			assert.Equal(t, 1, cli.ImportCommand(context.Background(), opts))
			assert.True(t, strings.HasPrefix(stderr.String(), "fx import: "), stderr.String())
		})
	}
}

func TestRateCommand(t *testing.T) {
	store := &stubRates{rate: 83.25}
	cli, err := NewFXOpsCLI(store)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	code := cli.RateCommand(context.Background(), FXRateOptions{From: "usd", To: "inr", Date: "2024-03-01", Side: "buying", Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	assert.Equal(t, "1 USD = 83.25 INR (for_buying, 2024-03-01)\n", stdout.String())
	assert.Equal(t, []string{"2024-03-01|usd|inr|for_buying"}, store.lookups)

	code = cli.RateCommand(context.Background(), FXRateOptions{From: "USD", To: "INR", Side: "both", Stdout: stdout, Stderr: new(bytes.Buffer)})
	assert.Equal(t, 1, code)
}

func TestRateCommandNotFound(t *testing.T) {
	cli, err := NewFXOpsCLI(&stubRates{err: fmt.Errorf("%w: USD to XAU", fx.ErrRateNotFound)})
	require.NoError(t, err)
	stderr := new(bytes.Buffer)
	code := cli.RateCommand(context.Background(), FXRateOptions{From: "USD", To: "XAU", Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, 10, code)
	assert.Contains(t, stderr.String(), "not found")
}

func TestNewFXOpsCLIRequiresStore(t *testing.T) {
	_, err := NewFXOpsCLI(nil)
	require.Error(t, err)
}
