package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"github.com/etnz/tradebook"
)

// setup points the app to a temporary data folder and captures the reports.
func setup(t *testing.T) *bytes.Buffer {
	t.Helper()
	oldBook, oldData, oldRaw, oldOut := *bookFile, *dataDir, *raw, stdout
	t.Cleanup(func() {
		*bookFile, *dataDir, *raw, stdout = oldBook, oldData, oldRaw, oldOut
	})
	t.Setenv("TB_BOOK_FILE", "")
	t.Setenv("TB_CURRENCY", "USD")

	*dataDir = t.TempDir()
	*bookFile = ""
	*raw = true
	out := &bytes.Buffer{}
	stdout = out
	return out
}

// run executes a command with its arguments.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: failed to parse %q: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), f)
}

func mustRun(t *testing.T, c subcommands.Command, args ...string) {
	t.Helper()
	if status := run(t, c, args...); status != subcommands.ExitSuccess {
		t.Fatalf("%s %q = %v, want ExitSuccess", c.Name(), args, status)
	}
}

func loadBook(t *testing.T) *tradebook.Book {
	t.Helper()
	b, err := tradebook.LoadBook(filepath.Join(*dataDir, "book.jsonl"))
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}
	return b
}

func TestBuySellPositions(t *testing.T) {
	out := setup(t)
	mustRun(t, &buyCmd{}, "-d", "2025-03-10", "-c", "600000", "-n", "PF Bank", "-q", "100", "-p", "10")
	mustRun(t, &buyCmd{}, "-d", "2025-03-11", "-c", "600000", "-n", "PF Bank", "-q", "50", "-p", "12")
	mustRun(t, &sellCmd{}, "-d", "2025-03-12", "-c", "600000", "-n", "PF Bank", "-q", "80", "-p", "15", "-m", "take profit")

	if got := loadBook(t).Len(); got != 3 {
		t.Fatalf("book has %d records, want 3", got)
	}

	out.Reset()
	mustRun(t, &positionsCmd{}, "-json")
	var positions []tradebook.StockPosition
	if err := json.Unmarshal(out.Bytes(), &positions); err != nil {
		t.Fatalf("positions -json: %v\n%s", err, out)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	p := positions[0]
	if p.HoldingQuantity.String() != "70" {
		t.Errorf("HoldingQuantity = %v, want 70", p.HoldingQuantity)
	}
	if p.RealizedPnL.String() != "346.67" {
		t.Errorf("RealizedPnL = %v, want 346.67", p.RealizedPnL)
	}

	out.Reset()
	mustRun(t, &positionsCmd{})
	if !strings.Contains(out.String(), "| 600000 |") {
		t.Errorf("positions report does not list the stock:\n%s", out)
	}
}

func TestBuy_Usage(t *testing.T) {
	setup(t)
	tests := [][]string{
		{"-c", "A", "-q", "1"},
		{"-q", "1", "-p", "1"},
		{"-c", "A", "-q", "x", "-p", "1"},
		{"-c", "A", "-q", "0", "-p", "1"},
		{"-c", "A", "-q", "1", "-p", "1", "-d", "not a date"},
	}
	for _, args := range tests {
		if got := run(t, &buyCmd{}, args...); got != subcommands.ExitUsageError {
			t.Errorf("buy %q = %v, want ExitUsageError", args, got)
		}
	}
	if got := loadBook(t).Len(); got != 0 {
		t.Errorf("book has %d records, want 0", got)
	}
}

func TestRoundtrip(t *testing.T) {
	out := setup(t)
	mustRun(t, &roundtripCmd{}, "-d", "2025-03-10", "-c", "A", "-q", "100", "-buy", "10", "-sell", "11")
	mustRun(t, &roundtripCmd{}, "-d", "2025-03-10", "-c", "B", "-q", "100", "-buy", "20", "-sell", "19", "-pnl", "-105")

	rts := loadBook(t).Roundtrips()
	if len(rts) != 2 {
		t.Fatalf("got %d roundtrips, want 2", len(rts))
	}
	if got := rts[0].RealizedPnL.String(); got != "100.00" {
		t.Errorf("computed pnl = %s, want 100.00", got)
	}
	if got := rts[1].RealizedPnL.String(); got != "-105.00" {
		t.Errorf("given pnl = %s, want -105.00", got)
	}

	out.Reset()
	mustRun(t, &roundtripsCmd{})
	if !strings.Contains(out.String(), "Win rate: 50.00%") {
		t.Errorf("roundtrips report:\n%s", out)
	}
}

func TestEdit(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-d", "2025-03-10", "-c", "A", "-q", "10", "-p", "10")
	mustRun(t, &roundtripCmd{}, "-d", "2025-03-10", "-c", "B", "-q", "10", "-buy", "10", "-sell", "11")
	records := loadBook(t).Records()
	tradeID, rtID := records[0].RecordID(), records[1].RecordID()

	mustRun(t, &editCmd{}, "-id", tradeID, "-q", "20", "-m", "fixed")
	mustRun(t, &editCmd{}, "-id", rtID, "-buy", "9")

	b := loadBook(t)
	trade := b.Trades()[0]
	if trade.Quantity.String() != "20" || trade.Memo != "fixed" || trade.Price.String() != "10.00" {
		t.Errorf("edited trade = %+v", trade)
	}
	rt := b.Roundtrips()[0]
	if got := rt.RealizedPnL.String(); got != "20.00" {
		t.Errorf("edited roundtrip pnl = %s, want 20.00", got)
	}
	if b.Records()[0].RecordID() != tradeID {
		t.Errorf("edit changed the record order")
	}

	if got := run(t, &editCmd{}, "-id", tradeID, "-buy", "1"); got != subcommands.ExitUsageError {
		t.Errorf("edit trade -buy = %v, want ExitUsageError", got)
	}
	if got := run(t, &editCmd{}, "-id", tradeID, "-q", "-1"); got != subcommands.ExitUsageError {
		t.Errorf("edit -q -1 = %v, want ExitUsageError", got)
	}
	if got := run(t, &editCmd{}, "-id", "unknown", "-q", "1"); got != subcommands.ExitFailure {
		t.Errorf("edit unknown = %v, want ExitFailure", got)
	}
}

func TestRm(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-c", "A", "-q", "1", "-p", "1")
	mustRun(t, &buyCmd{}, "-c", "B", "-q", "1", "-p", "1")
	records := loadBook(t).Records()

	if got := run(t, &rmCmd{}, records[0].RecordID(), "unknown"); got != subcommands.ExitFailure {
		t.Errorf("rm with an unknown id = %v, want ExitFailure", got)
	}
	if got := loadBook(t).Len(); got != 2 {
		t.Errorf("failed rm left %d records, want 2", got)
	}

	mustRun(t, &rmCmd{}, records[0].RecordID())
	b := loadBook(t)
	if b.Len() != 1 || b.Records()[0].RecordID() != records[1].RecordID() {
		t.Errorf("rm removed the wrong record")
	}
}

func TestFmt(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-d", "2025-03-12", "-c", "C", "-q", "1", "-p", "1")
	mustRun(t, &buyCmd{}, "-d", "2025-03-10", "-c", "A", "-q", "1", "-p", "1")
	mustRun(t, &buyCmd{}, "-d", "2025-03-12", "-c", "D", "-q", "1", "-p", "1")

	mustRun(t, &fmtCmd{})

	var codes []string
	for _, tr := range loadBook(t).Trades() {
		codes = append(codes, tr.StockCode)
	}
	if got := strings.Join(codes, ","); got != "A,C,D" {
		t.Errorf("formatted order = %s, want A,C,D", got)
	}
}

func TestFmt_InvalidBook(t *testing.T) {
	setup(t)
	content := `{"kind":"trade","id":"t1","date":"2025-03-10","code":"A","side":"buy","quantity":0,"price":1}` + "\n"
	path := filepath.Join(*dataDir, "book.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if got := run(t, &fmtCmd{}); got != subcommands.ExitFailure {
		t.Errorf("fmt invalid book = %v, want ExitFailure", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("fmt modified an invalid book:\n%s", data)
	}
}

func TestMonthlyAndSummary(t *testing.T) {
	out := setup(t)
	mustRun(t, &buyCmd{}, "-d", "2025-01-10", "-c", "A", "-q", "10", "-p", "10")
	mustRun(t, &sellCmd{}, "-d", "2025-02-10", "-c", "A", "-q", "10", "-p", "12")

	out.Reset()
	mustRun(t, &monthlyCmd{}, "-months", "1", "-json")
	var stats []tradebook.MonthlyStat
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("monthly -json: %v\n%s", err, out)
	}
	if len(stats) != 1 || stats[0].Month != "2025-02" || stats[0].PnL.String() != "20.00" {
		t.Errorf("monthly -months 1 = %+v", stats)
	}

	out.Reset()
	mustRun(t, &summaryCmd{})
	if !strings.Contains(out.String(), "| **Total P&L** | **+$20.00** |") {
		t.Errorf("summary report:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-d", "2025-03-10", "-c", "A", "-q", "10", "-p", "10")

	path := filepath.Join(t.TempDir(), "book.csv")
	mustRun(t, &exportCmd{}, "-o", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "id,kind,date,code") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestNotes(t *testing.T) {
	out := setup(t)
	mustRun(t, &noteCmd{}, "-id", "plan", "-t", "Plan", "-m", "Buy the dip.", "-tags", "plan, 2025")
	mustRun(t, &noteCmd{}, "-id", "lessons", "-t", "Lessons")

	out.Reset()
	mustRun(t, &notesCmd{}, "-tag", "plan")
	if !strings.Contains(out.String(), "| plan | Plan |") || strings.Contains(out.String(), "Lessons") {
		t.Errorf("notes -tag plan:\n%s", out)
	}

	out.Reset()
	mustRun(t, &noteCmd{}, "-show", "plan")
	if !strings.Contains(out.String(), "Buy the dip.") {
		t.Errorf("note -show:\n%s", out)
	}

	mustRun(t, &noteCmd{}, "-rm", "plan")
	if got := run(t, &noteCmd{}, "-show", "plan"); got != subcommands.ExitFailure {
		t.Errorf("note -show removed = %v, want ExitFailure", got)
	}
	if got := run(t, &noteCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("note without flags = %v, want ExitUsageError", got)
	}
}

func TestDiary(t *testing.T) {
	out := setup(t)
	mustRun(t, &diaryCmd{}, "-d", "2025-03-10", "-mood", "calm", "-m", "Waited for the open.")
	mustRun(t, &diaryCmd{}, "-d", "2025-04-01", "-m", "April.")

	out.Reset()
	mustRun(t, &diaryCmd{}, "-month", "2025-03")
	if !strings.Contains(out.String(), "Waited for the open.") || strings.Contains(out.String(), "April.") {
		t.Errorf("diary -month 2025-03:\n%s", out)
	}

	out.Reset()
	mustRun(t, &diaryCmd{}, "-month", "all")
	if !strings.Contains(out.String(), "April.") {
		t.Errorf("diary -month all:\n%s", out)
	}
}

func TestSettings(t *testing.T) {
	out := setup(t)
	mustRun(t, &settingsCmd{})
	if !strings.Contains(out.String(), "| Currency | USD |") {
		t.Errorf("settings default to TB_CURRENCY:\n%s", out)
	}

	out.Reset()
	mustRun(t, &settingsCmd{}, "-currency", "gbp", "-watchlist", "AAPL, MSFT")
	if !strings.Contains(out.String(), "| Currency | GBP |") || !strings.Contains(out.String(), "AAPL, MSFT") {
		t.Errorf("settings after change:\n%s", out)
	}

	mustRun(t, &buyCmd{}, "-c", "A", "-q", "1", "-p", "1")
	out.Reset()
	mustRun(t, &summaryCmd{})
	if !strings.Contains(out.String(), "£1.00") {
		t.Errorf("summary does not use the saved currency:\n%s", out)
	}
}
