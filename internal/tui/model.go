package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/progress"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/selector"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/workflow"
	"github.com/Pavankumarbhedam/Pdf-compressior/pkg/utils"
)

// finalizeDelay keeps the full bar on screen briefly before the result panel.
const finalizeDelay = 600 * time.Millisecond

type focus int

const (
	focusPath focus = iota
	focusTarget
)

// Options configure the interactive client.
type Options struct {
	DownloadDir     string
	StartDir        string
	DefaultTargetKb int
}

type model struct {
	orch   *workflow.Orchestrator
	opts   Options
	frames <-chan progress.Frame
	ctx    context.Context

	sp      spinner.Model
	bar     bar.Model
	pathIn  textinput.Model
	target  textinput.Model
	picker  filepicker.Model
	picking bool
	focus   focus

	// finalizing is set between a successful response and the result panel
	finalizing bool
	saved      string
	saveErr    error

	termW int
	termH int

	showHelp bool
}

func newModel(ctx context.Context, orch *workflow.Orchestrator, frames <-chan progress.Frame, opts Options) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	pathIn := textinput.New()
	pathIn.Placeholder = "Type a path or drag & drop a PDF here"
	pathIn.CharLimit = 4096
	pathIn.Width = 50
	pathIn.Focus()

	tgt := textinput.New()
	tgt.Placeholder = "100"
	tgt.CharLimit = 9
	tgt.Width = 10
	if opts.DefaultTargetKb > 0 {
		tgt.SetValue(fmt.Sprint(opts.DefaultTargetKb))
	}

	fp := filepicker.New()
	if opts.StartDir != "" {
		fp.CurrentDirectory = opts.StartDir
	}

	return model{
		orch:   orch,
		opts:   opts,
		frames: frames,
		ctx:    ctx,
		sp:     sp,
		bar:    bar.New(bar.WithDefaultGradient(), bar.WithWidth(40)),
		pathIn: pathIn,
		target: tgt,
		picker: fp,
		focus:  focusPath,
	}
}

// Listener adapts a channel into a progress listener. Frames are dropped
// when the channel is full; the UI re-reads the current value on render.
func Listener(ch chan<- progress.Frame) progress.Listener {
	return func(f progress.Frame) {
		select {
		case ch <- f:
		default:
		}
	}
}

// public entry
func Run(ctx context.Context, orch *workflow.Orchestrator, frames <-chan progress.Frame, opts Options) error {
	m := newModel(ctx, orch, frames, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// messages
type frameMsg progress.Frame
type outcomeMsg struct{ outcome domain.Outcome }
type revealMsg struct{}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitFrameMsg())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.picking {
		return m.updatePicker(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// a dropped file arrives as one multi-rune key event
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
			if cmd, ok := m.handleDrop(string(msg.Runes)); ok {
				return m, cmd
			}
			return m.updateFocused(msg)
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			st := m.orch.Snapshot()
			if st.UI == domain.ResultReady || st.UI == domain.Failed {
				m.orch.Dismiss()
				m.saved, m.saveErr = "", nil
				return m, nil
			}
			if st.UI == domain.Compressing {
				return m, nil
			}
			return m, tea.Quit
		case "?":
			if m.focus == focusTarget {
				m.showHelp = !m.showHelp
				return m, nil
			}
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "ctrl+o":
			if m.orch.Snapshot().UI == domain.Compressing {
				return m, nil
			}
			m.picking = true
			return m, m.picker.Init()
		case "ctrl+s":
			if m.orch.Snapshot().UI == domain.ResultReady && !m.finalizing {
				m.saved, m.saveErr = m.orch.Save(m.opts.DownloadDir)
			}
			return m, nil
		case "enter":
			if m.focus == focusPath {
				m.selectPath(strings.TrimSpace(m.pathIn.Value()), selector.OriginPick)
				return m, nil
			}
			return m.submit()
		}
		return m.updateFocused(msg)

	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		// keep ticking only while there is something to animate
		if m.orch.Snapshot().UI != domain.Compressing && !m.finalizing {
			return m, nil
		}
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case frameMsg:
		return m, m.waitFrameMsg()

	case outcomeMsg:
		if msg.outcome.OK() {
			m.finalizing = true
			return m, tea.Tick(finalizeDelay, func(time.Time) tea.Msg { return revealMsg{} })
		}
		return m, nil

	case revealMsg:
		m.finalizing = false
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			m.picking = false
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.selectPath(path, selector.OriginPick)
	}
	return m, cmd
}

func (m model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusPath {
		m.pathIn, cmd = m.pathIn.Update(msg)
	} else {
		m.target, cmd = m.target.Update(msg)
	}
	return m, cmd
}

// handleDrop treats multi-rune input that names an existing file as a drop.
func (m *model) handleDrop(raw string) (tea.Cmd, bool) {
	path := selector.ParseDropped(raw)
	if path == "" {
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	m.selectPath(path, selector.OriginDrop)
	return nil, true
}

func (m *model) selectPath(path string, origin selector.Origin) {
	if _, err := m.orch.SelectPath(path, origin); errors.Is(err, workflow.ErrBusy) {
		return
	}
	m.saved, m.saveErr = "", nil
	if st := m.orch.Snapshot(); st.Selected != nil {
		m.pathIn.SetValue(st.Selected.Path)
	} else {
		m.pathIn.SetValue("")
	}
}

func (m model) submit() (tea.Model, tea.Cmd) {
	if !m.orch.Snapshot().SubmitEnabled {
		return m, nil
	}
	kb, err := m.orch.ParseTarget(m.target.Value())
	if err != nil {
		return m, nil
	}
	req, err := m.orch.Begin(kb)
	if err != nil {
		return m, nil
	}

	m.saved, m.saveErr = "", nil
	m.finalizing = false
	m.sp = spinner.New()
	m.sp.Spinner = spinner.Dot

	orch, ctx := m.orch, m.ctx
	await := func() tea.Msg {
		return outcomeMsg{outcome: orch.Await(ctx, req)}
	}
	return m, tea.Batch(m.sp.Tick, await)
}

func (m *model) toggleFocus() {
	if m.focus == focusPath {
		m.focus = focusTarget
		m.pathIn.Blur()
		m.target.Focus()
		return
	}
	m.focus = focusPath
	m.target.Blur()
	m.pathIn.Focus()
}

// frame wiring
func (m model) waitFrameMsg() tea.Cmd {
	if m.frames == nil {
		return nil
	}
	ch := m.frames
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return frameMsg(f)
	}
}

func (m model) View() string {
	if m.picking {
		return titleStyle.Render("Choose a PDF") + "\n\n" + m.picker.View() + "\n" + faintStyle.Render("enter select • esc cancel") + "\n"
	}

	st := m.orch.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("PDF Compressor") + "\n\n")

	b.WriteString(m.label("File", focusPath) + m.pathIn.View() + "\n")
	if st.Selected != nil {
		b.WriteString("        " + selectedStyle.Render(st.Label) + "\n")
	} else {
		b.WriteString("        " + faintStyle.Render("Press ctrl+o to browse or drag & drop a PDF") + "\n")
	}
	b.WriteString(m.label("Target", focusTarget) + m.target.View() + " KB\n\n")

	if st.SubmitEnabled {
		b.WriteString(buttonStyle.Render("Compress") + faintStyle.Render("  (enter on target)") + "\n\n")
	} else {
		b.WriteString(buttonDisabledStyle.Render("Compress") + "\n\n")
	}

	switch {
	case st.UI == domain.Compressing:
		b.WriteString(fmt.Sprintf("%s Compressing…\n%s\n", m.sp.View(), m.bar.ViewAs(st.Progress)))
	case m.finalizing:
		b.WriteString(fmt.Sprintf("%s Finalizing…\n%s\n", m.sp.View(), m.bar.ViewAs(st.Progress)))
	case st.UI == domain.ResultReady && st.Result != nil:
		b.WriteString(m.resultPanel(st) + "\n")
	case st.Failure != nil:
		b.WriteString(errorStyle.Render(st.Notice) + "\n")
	}

	if m.showHelp {
		b.WriteString("\n" + m.helpText())
	} else {
		b.WriteString("\n" + faintStyle.Render("tab switch field • ctrl+o browse • ? help • esc back/quit") + "\n")
	}
	return b.String()
}

func (m model) label(name string, f focus) string {
	text := fmt.Sprintf("%-8s", name+":")
	if m.focus == f {
		return cursorStyle.Render(text)
	}
	return text
}

func (m model) resultPanel(st workflow.State) string {
	r := st.Result
	lines := []string{
		fmt.Sprintf("Original size:   %s", r.OriginalSize),
		fmt.Sprintf("Target size:     %s", r.TargetSize),
		fmt.Sprintf("Compressed size: %s (%.1f%% smaller)", r.CompressedSize, utils.Reduction(r.OriginalBytes, r.CompressedBytes)),
		fmt.Sprintf("Download:        %s  [ctrl+s]", r.FileName),
	}
	switch {
	case m.saveErr != nil:
		lines = append(lines, errorStyle.Render("Save failed: "+m.saveErr.Error()))
	case m.saved != "":
		lines = append(lines, selectedStyle.Render("Saved to "+m.saved))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m model) helpText() string {
	lines := []string{
		"Help (press ? to close):",
		"  tab        Switch between file and target",
		"  enter      Select typed path / compress",
		"  ctrl+o     Browse for a PDF",
		"  drop/paste Select a dropped file",
		"  ctrl+s     Save the compressed PDF",
		"  esc        Close result / quit",
		"  ctrl+c     Quit",
	}
	return lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder()).Render(strings.Join(lines, "\n"))
}

var (
	titleStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))                         // purple
	cursorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)                         // purple
	selectedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))                                    // green
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)                        // red
	faintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))                                   // gray
	buttonStyle         = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("42")).Foreground(lipgloss.Color("0"))
	buttonDisabledStyle = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("240")).Foreground(lipgloss.Color("250"))
	panelStyle          = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("45"))
)
