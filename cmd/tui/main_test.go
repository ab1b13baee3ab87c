package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gccontent/internal/analyzer"
	"gccontent/internal/history"
	"gccontent/internal/report"
)

func press(t *testing.T, m model, k tea.KeyType) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("expected model, got %T", next)
	}
	return nm, cmd
}

func TestAnalyzeKey(t *testing.T) {
	m := initialModel(nil, nil)
	m.input.SetValue(">seq1\nATGCGC")
	m, _ = press(t, m, tea.KeyCtrlR)

	if m.result == nil {
		t.Fatalf("expected a result, got error %q", m.err)
	}
	if m.result.Length != 6 || m.result.GCCount != 4 {
		t.Fatalf("unexpected result: %+v", *m.result)
	}
	if !strings.Contains(m.View(), "GC Percentage: 66.67%") {
		t.Fatalf("expected summary in view")
	}
}

func TestFailedAnalysisClearsResult(t *testing.T) {
	m := initialModel(nil, nil)
	m.input.SetValue("GGCC")
	m, _ = press(t, m, tea.KeyCtrlR)
	if m.result == nil {
		t.Fatalf("expected first analysis to succeed")
	}

	m.input.SetValue("ATGU")
	m, _ = press(t, m, tea.KeyCtrlR)
	if m.result != nil {
		t.Fatalf("stale result kept after failed analysis: %+v", *m.result)
	}
	if m.err != "Sequence contains non-DNA characters." {
		t.Fatalf("unexpected error text %q", m.err)
	}

	// saving now must refuse instead of exporting the old GGCC result
	m, cmd := press(t, m, tea.KeyCtrlS)
	if cmd != nil || m.prompt != promptNone {
		t.Fatalf("save prompt should not open without a result")
	}
	if m.notice != noResultWarning {
		t.Fatalf("expected %q, got %q", noResultWarning, m.notice)
	}
}

func TestEmptyInput(t *testing.T) {
	m := initialModel(nil, nil)
	m, _ = press(t, m, tea.KeyCtrlR)
	if m.err != "No valid DNA sequence found." {
		t.Fatalf("unexpected error text %q", m.err)
	}
}

func TestClear(t *testing.T) {
	m := initialModel(nil, nil)
	m.input.SetValue("ATGC")
	m, _ = press(t, m, tea.KeyCtrlR)
	m, _ = press(t, m, tea.KeyCtrlL)
	if m.input.Value() != "" || m.result != nil || m.err != "" {
		t.Fatalf("expected cleared model, got input=%q result=%v err=%q", m.input.Value(), m.result, m.err)
	}
}

func TestSavePromptFlow(t *testing.T) {
	m := initialModel(nil, nil)
	m.input.SetValue("GGCCAT")
	m, _ = press(t, m, tea.KeyCtrlR)

	m, _ = press(t, m, tea.KeyCtrlS)
	if m.prompt != promptSave {
		t.Fatalf("expected save prompt, got %v", m.prompt)
	}
	if m.path.Value() != defaultSaveName {
		t.Fatalf("expected default name %q, got %q", defaultSaveName, m.path.Value())
	}

	m, _ = press(t, m, tea.KeyEsc)
	if m.prompt != promptNone {
		t.Fatalf("esc should close the prompt")
	}
}

func TestSaveCmdWritesExport(t *testing.T) {
	res, err := analyzer.Analyze(">x\nGGCCAT")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	base := filepath.Join(t.TempDir(), "report")
	msg := saveCmd(base, res)()
	saved, ok := msg.(savedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("unexpected save outcome: %#v", msg)
	}
	if saved.path != base+".txt" {
		t.Fatalf("expected .txt to be appended, got %q", saved.path)
	}
	data, err := os.ReadFile(saved.path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if string(data) != report.Export(res) {
		t.Fatalf("unexpected saved content:\n%s", data)
	}

	m := initialModel(nil, nil)
	next, _ := m.Update(saved)
	if next.(model).notice != savedNotice {
		t.Fatalf("expected saved notice")
	}
}

func TestLoadFileAnalyzes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.fasta")
	if err := os.WriteFile(path, []byte(">seq\nAAAA\nGG\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	store := history.NewJSONStore(filepath.Join(t.TempDir(), "history.json"))
	m := initialModel(nil, store)

	next, _ := m.Update(loadFileCmd(path)())
	m = next.(model)
	if m.result == nil || m.result.Length != 6 || m.result.GCCount != 2 {
		t.Fatalf("unexpected result after load: %+v (err %q)", m.result, m.err)
	}

	entries, err := store.Recent(context.Background(), 0)
	if err != nil || len(entries) != 1 || entries[0].Source != "file" {
		t.Fatalf("expected one recorded file analysis, got %+v (err %v)", entries, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := initialModel(nil, nil)
	next, _ := m.Update(loadFileCmd(filepath.Join(t.TempDir(), "absent.fa"))())
	m = next.(model)
	if m.result != nil || !strings.HasPrefix(m.err, "Could not read") {
		t.Fatalf("expected read error, got result=%v err=%q", m.result, m.err)
	}
}

func TestHelpToggle(t *testing.T) {
	m := initialModel(nil, nil)
	m, _ = press(t, m, tea.KeyF1)
	if !m.showHelp || !strings.Contains(m.View(), "Help") {
		t.Fatalf("expected help modal")
	}
	m, _ = press(t, m, tea.KeyEsc)
	if m.showHelp {
		t.Fatalf("esc should close help")
	}
}

func loadInto(t *testing.T, m model, content string) model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.fasta")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	next, _ := m.Update(loadFileCmd(path)())
	return next.(model)
}

func TestLoadedFileIsAnalyzedAsRead(t *testing.T) {
	for _, content := range []string{"AT\tGC", "AT\x01GC"} {
		m := loadInto(t, initialModel(nil, nil), content)
		if m.result != nil || m.err != "Sequence contains non-DNA characters." {
			t.Fatalf("%q: expected rejection, got result=%v err=%q", content, m.result, m.err)
		}

		// analyzing again without editing still sees the file as read
		m, _ = press(t, m, tea.KeyCtrlR)
		if m.result != nil || m.err != "Sequence contains non-DNA characters." {
			t.Fatalf("%q: expected rejection on reanalysis, got result=%v err=%q", content, m.result, m.err)
		}
	}
}

func TestEditedBufferReplacesLoadedFile(t *testing.T) {
	m := loadInto(t, initialModel(nil, nil), "AT\x01GC")
	m.input.SetValue("GGCC")
	m, _ = press(t, m, tea.KeyCtrlR)
	if m.result == nil || m.result.GCPercent != 100 {
		t.Fatalf("expected the edited buffer to be analyzed, got result=%v err=%q", m.result, m.err)
	}
	if m.loaded != nil {
		t.Fatalf("loaded text should be dropped once the buffer changes")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	err := run([]string{"-config", path})
	if err == nil || !strings.HasPrefix(err.Error(), "config:") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRunRejectsUnknownHistoryStore(t *testing.T) {
	t.Setenv("GCCONTENT_HISTORY_STORE", "bogus")
	err := run([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")})
	if err == nil || !strings.HasPrefix(err.Error(), "history:") {
		t.Fatalf("expected history error, got %v", err)
	}
}

func TestRunQuitsAndClosesStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	t.Setenv("GCCONTENT_HISTORY_STORE", "sqlite")
	t.Setenv("GCCONTENT_HISTORY_PATH", dbPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := run(
		[]string{"-config", filepath.Join(dir, "none.yaml"), "-log", filepath.Join(dir, "tui.log")},
		tea.WithContext(ctx),
		tea.WithInput(strings.NewReader("\x03")),
		tea.WithOutput(io.Discard),
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// the store was closed, so it can be opened again and read
	store, err := history.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	if _, err := store.Recent(context.Background(), 0); err != nil {
		t.Fatalf("read reopened store: %v", err)
	}
}
