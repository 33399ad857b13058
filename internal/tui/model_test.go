package tui

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/compressor"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/presenter"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/progress"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/workflow"
)

type stubService struct {
	calls  int32
	status int
	body   []byte
}

func (s *stubService) Compress(ctx context.Context, req domain.CompressionRequest) (compressor.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	return compressor.Response{StatusCode: s.status, Body: s.body}, nil
}

func newTestModel(t *testing.T, svc compressor.Service) model {
	t.Helper()
	pres, err := presenter.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pres.Close() })

	orch := workflow.New(svc, progress.NewAnimator(progress.WithInterval(time.Millisecond)), pres)
	return newModel(context.Background(), orch, nil, Options{DownloadDir: t.TempDir(), DefaultTargetKb: 100})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

// drop builds the key event a terminal emits when a file is dropped on it.
func drop(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and flattens batches into the produced messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestDropSelectsPDF(t *testing.T) {
	m := newTestModel(t, &stubService{status: http.StatusOK})
	path := writeFile(t, "my report.pdf", "%PDF-1.4 content")

	m, _ = update(t, m, drop("'"+path+"'"))

	st := m.orch.Snapshot()
	assert.Equal(t, domain.FileSelected, st.UI)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "my report.pdf", st.Selected.Name)
	assert.Contains(t, m.View(), "Selected: my report.pdf")
}

func TestDropRejectsNonPDF(t *testing.T) {
	m := newTestModel(t, &stubService{status: http.StatusOK})
	m, _ = update(t, m, drop(writeFile(t, "a.pdf", "%PDF-1.4")))
	require.NotNil(t, m.orch.Snapshot().Selected)

	m, _ = update(t, m, drop(writeFile(t, "b.txt", "hello")))

	st := m.orch.Snapshot()
	assert.Nil(t, st.Selected)
	assert.Equal(t, domain.Idle, st.UI)
	assert.Contains(t, m.View(), "Please upload a valid PDF file.")
}

func TestTypedTextThatIsNotAFileGoesToInput(t *testing.T) {
	m := newTestModel(t, &stubService{status: http.StatusOK})
	m.toggleFocus()
	m.target.SetValue("")

	m, _ = update(t, m, drop("250"))

	assert.Equal(t, "250", m.target.Value())
	assert.Nil(t, m.orch.Snapshot().Selected)
}

func TestSingleKeystrokeIsNotADrop(t *testing.T) {
	m := newTestModel(t, &stubService{status: http.StatusOK})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("%PDF-1.4"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Equal(t, "x", m.pathIn.Value())
	assert.Nil(t, m.orch.Snapshot().Selected)
}

func TestSubmitWithInvalidTarget(t *testing.T) {
	svc := &stubService{status: http.StatusOK}
	m := newTestModel(t, svc)
	m, _ = update(t, m, drop(writeFile(t, "a.pdf", "%PDF-1.4")))

	m.toggleFocus()
	m.target.SetValue("10")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, int32(0), atomic.LoadInt32(&svc.calls))
	assert.Contains(t, m.View(), "minimum 20 KB")
}

func TestSubmitFlow(t *testing.T) {
	svc := &stubService{status: http.StatusOK, body: []byte("%PDF-tiny")}
	m := newTestModel(t, svc)
	m, _ = update(t, m, drop(writeFile(t, "Report.PDF", "%PDF-1.4 a somewhat larger body")))

	m.toggleFocus()
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, domain.Compressing, m.orch.Snapshot().UI)
	assert.Contains(t, m.View(), "Compressing…")

	// a second enter while in flight does nothing
	m, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	var outcome tea.Msg
	for _, msg := range collect(cmd) {
		if _, ok := msg.(outcomeMsg); ok {
			outcome = msg
		}
	}
	require.NotNil(t, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.calls))

	m, cmd = update(t, m, outcome)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Finalizing…")

	m, _ = update(t, m, revealMsg{})
	view := m.View()
	assert.Contains(t, view, "Target size:     100 KB")
	assert.Contains(t, view, "Report_compressed.pdf")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NoError(t, m.saveErr)
	assert.Equal(t, "Report_compressed.pdf", filepath.Base(m.saved))
	assert.True(t, strings.Contains(m.View(), "Saved to"))
}

func TestServerErrorShowsGuidance(t *testing.T) {
	svc := &stubService{status: http.StatusInternalServerError}
	m := newTestModel(t, svc)
	m, _ = update(t, m, drop(writeFile(t, "a.pdf", "%PDF-1.4")))

	m.toggleFocus()
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range collect(cmd) {
		if o, ok := msg.(outcomeMsg); ok {
			m, _ = update(t, m, o)
		}
	}

	st := m.orch.Snapshot()
	assert.Equal(t, domain.Failed, st.UI)
	assert.True(t, st.SubmitEnabled)
	assert.Contains(t, m.View(), workflow.MsgServerError)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, domain.FileSelected, m.orch.Snapshot().UI)
}

func TestListenerDropsWhenFull(t *testing.T) {
	ch := make(chan progress.Frame, 1)
	l := Listener(ch)
	l(progress.Frame{Seq: 1})
	l(progress.Frame{Seq: 2})

	f := <-ch
	assert.Equal(t, uint64(1), f.Seq)
	assert.Len(t, ch, 0)
}
