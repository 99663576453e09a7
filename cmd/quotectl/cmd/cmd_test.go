package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/pricing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "quotectl.db"))
	t.Setenv("PRICE_TABLE_PATH", "")

	today := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	root := newRootCmd(&app{
		logger: zap.NewNop(),
		now:    func() time.Time { return today },
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTable(t *testing.T, document string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
	return path
}

func TestQuoteListsEveryPlan(t *testing.T) {
	out, err := run(t, "quote", "--quantity", "60", "--grade", "スタンダード")
	require.NoError(t, err)

	require.Contains(t, out, "¥11,650")
	require.Contains(t, out, pricing.SameDayLabel)
	require.Contains(t, out, "10/22 (木)")
	require.Equal(t, 5, strings.Count(out, "\n"))
}

func TestQuotePhotoOffersTwoPlans(t *testing.T) {
	out, err := run(t, "quote", "-q", "10", "-f", "写真仕上げ")
	require.NoError(t, err)

	require.Contains(t, out, "self")
	require.Contains(t, out, "omakase")
	require.NotContains(t, out, "marunage")
}

func TestQuoteBreakdown(t *testing.T) {
	out, err := run(t, "quote", "-q", "20", "--dm", "--plan", "宛名印刷プラン")
	require.NoError(t, err)

	require.Contains(t, out, "Total:      ¥7,080")
	require.Contains(t, out, "Print:      ¥5,680")
	require.Contains(t, out, "DM coupon:  ¥-300")
}

func TestQuoteUsesTableFlag(t *testing.T) {
	revised := strings.Replace(string(pricing.DefaultTableYAML), "postcard_unit_price: 85", "postcard_unit_price: 100", 1)
	path := writeTable(t, revised)

	out, err := run(t, "quote", "-q", "10", "--table", path)
	require.NoError(t, err)

	// 3600 base plus 10 postcards at 100.
	require.Contains(t, out, "¥4,600")
}

func TestQuoteRejectsNegativeQuantity(t *testing.T) {
	_, err := run(t, "quote", "--quantity=-1")
	require.Error(t, err)
}

func TestQuoteRejectsOversizedQuantity(t *testing.T) {
	_, err := run(t, "quote", "--quantity=100001")
	require.ErrorContains(t, err, "100000")
}

func TestQuoteBreakdownRejectsHiddenPlan(t *testing.T) {
	_, err := run(t, "quote", "-q", "20", "-f", "写真仕上げ", "--plan", "まるなげプラン")
	require.ErrorContains(t, err, "not offered")
}

func TestCompletionCrossesYear(t *testing.T) {
	out, err := run(t, "completion", "のんびりおまかせ", "--date", "2026-12-30")
	require.NoError(t, err)
	require.Equal(t, "1/3 (日)\n", out)
}

func TestCompletionRejectsBadDate(t *testing.T) {
	_, err := run(t, "completion", "self", "--date", "12/30")
	require.Error(t, err)
}

func TestPriceTableValidate(t *testing.T) {
	out, err := run(t, "pricetable", "validate", writeTable(t, string(pricing.DefaultTableYAML)))
	require.NoError(t, err)
	require.Contains(t, out, "is valid")

	broken := strings.Replace(string(pricing.DefaultTableYAML), "step_size: 10", "step_size: 0", 1)
	_, err = run(t, "pricetable", "validate", writeTable(t, broken))
	require.True(t, errors.Is(err, pricing.ErrInvalidTable), "got %v", err)
}

func TestPriceTableImportThenList(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "shared.db"))
	dbPath := os.Getenv("DB_PATH")
	path := writeTable(t, string(pricing.DefaultTableYAML))

	today := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	exec := func(args ...string) string {
		root := newRootCmd(&app{logger: zap.NewNop(), now: func() time.Time { return today }})
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		require.NoError(t, root.ExecuteContext(context.Background()))
		return out.String()
	}

	require.Equal(t, "stored revision 1\n", exec("pricetable", "import", path, "--note", "first"))
	require.Equal(t, "stored revision 2\n", exec("pricetable", "import", path, "--note", "second"))

	out := exec("pricetable", "list")
	require.Less(t, strings.Index(out, "second"), strings.Index(out, "first"))
	require.FileExists(t, dbPath)
}
