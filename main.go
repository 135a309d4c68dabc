//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/lexi/internal/app"
	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	speakingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FFFF00")).
			Foreground(lipgloss.Color("#000000"))
)

// highlightInterval is how often the reading view follows the spoken word.
const highlightInterval = 150 * time.Millisecond

type mode int

const (
	modeEdit mode = iota
	modeRead
	modePrompt
)

type model struct {
	session *app.Session
	editor  textarea.Model
	prompt  textinput.Model
	mode    mode

	initial tea.Cmd

	status    string
	statusErr bool
	importing bool
	quitting  bool
	width     int
	height    int
}

type importDoneMsg struct {
	name string
	text string
	err  error
}

type speechDoneMsg struct{}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.initial)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case importDoneMsg:
		m.importing = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.editor.SetValue(msg.text)
		return m.info(fmt.Sprintf("Imported %s", msg.name)), nil

	case speechDoneMsg:
		return m, nil

	case tickMsg:
		if m.session.Mode() == app.ModeHighlight && m.session.SpeechState() == speech.StateSpeaking {
			return m, tick(highlightInterval)
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modePrompt {
			return m.updatePrompt(msg)
		}
		if next, cmd, ok := m.handleKey(msg); ok {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	switch m.mode {
	case modePrompt:
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	case modeRead:
		return m, nil
	}
	before := m.editor.Value()
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.session.SetText(after)
	}
	return m, cmd
}

// handleKey runs global bindings. ok is false when the key should reach
// the editor.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Stop()
		m.quitting = true
		return m, tea.Quit, true

	case "ctrl+o":
		if m.importing {
			return m.fail(app.ErrImportBusy), nil, true
		}
		m.mode = modePrompt
		m.prompt.Reset()
		m.editor.Blur()
		return m, m.prompt.Focus(), true

	case "ctrl+g":
		if m.importing {
			return m.fail(app.ErrImportBusy), nil, true
		}
		m.importing = true
		return m.info("Capturing screen..."), captureScreen(m.session), true

	case "ctrl+e":
		return m.nextReadMode()

	case "ctrl+r":
		if m.mode == modeRead {
			m.mode = modeEdit
			return m, m.editor.Focus(), true
		}
		m.mode = modeRead
		m.editor.Blur()
		return m, nil, true

	case "ctrl+p":
		if m.session.SpeechState() == speech.StateSpeaking {
			m.session.Stop()
			return m.info("Stopped"), nil, true
		}
		done, err := m.session.Play()
		if err != nil {
			return m.fail(err), nil, true
		}
		return m.info("Reading aloud"), waitSpeech(done), true

	case "ctrl+s":
		path, err := m.session.Export()
		if err != nil {
			return m.fail(err), nil, true
		}
		return m.info(fmt.Sprintf("Exported to %s", path)), nil, true

	case "ctrl+y":
		if err := m.session.Copy(); err != nil {
			return m.fail(err), nil, true
		}
		return m.info("Copied to clipboard"), nil, true

	case "ctrl+x":
		m.session.Clear()
		m.editor.Reset()
		return m.info("Cleared"), nil, true

	case "ctrl+t":
		st, err := m.session.NextTheme()
		m.applyStyle(st)
		if err != nil {
			return m.fail(err), nil, true
		}
		return m.info(fmt.Sprintf("Theme %s", themeName(st))), nil, true

	case "ctrl+f":
		return m.update(func(st settings.Settings) settings.Settings {
			if st.Font == settings.FontOpenDyslexic {
				st.Font = settings.FontNormal
			} else {
				st.Font = settings.FontOpenDyslexic
			}
			return st
		}), nil, true

	case "f2", "f3":
		return m.step(msg.String() == "f3", settings.FontSizeRange, func(st *settings.Settings) *float64 { return &st.FontSizePx }), nil, true
	case "f4", "f5":
		return m.step(msg.String() == "f5", settings.LineHeightRange, func(st *settings.Settings) *float64 { return &st.LineHeight }), nil, true
	case "f6", "f7":
		return m.step(msg.String() == "f7", settings.LetterSpacingRange, func(st *settings.Settings) *float64 { return &st.LetterSpacingPx }), nil, true
	case "f8", "f9":
		return m.step(msg.String() == "f9", settings.SpeechRateRange, func(st *settings.Settings) *float64 { return &st.SpeechRate }), nil, true

	case "ctrl+z":
		st, err := m.session.ResetSettings()
		m.applyStyle(st)
		if err != nil {
			return m.fail(err), nil, true
		}
		return m.info("Settings reset"), nil, true
	}
	return m, nil, false
}

// nextReadMode cycles read, highlight and listen. The speaking modes
// switch to the reading view.
func (m model) nextReadMode() (tea.Model, tea.Cmd, bool) {
	next := app.ReadModes[0]
	for i, rm := range app.ReadModes {
		if rm == m.session.Mode() {
			next = app.ReadModes[(i+1)%len(app.ReadModes)]
		}
	}
	done, err := m.session.SetMode(next)
	if err != nil {
		return m.fail(err), nil, true
	}
	m = m.info(fmt.Sprintf("Mode %s", next))
	if next == app.ModeRead {
		return m, nil, true
	}
	m.mode = modeRead
	m.editor.Blur()
	cmds := []tea.Cmd{waitSpeech(done)}
	if next == app.ModeHighlight {
		cmds = append(cmds, tick(highlightInterval))
	}
	return m, tea.Batch(cmds...), true
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = modeEdit
		m.prompt.Reset()
		m.prompt.Blur()
		return m, m.editor.Focus()
	case "enter":
		path := expandPath(m.prompt.Value())
		m.mode = modeEdit
		m.prompt.Reset()
		m.prompt.Blur()
		if path == "" {
			return m, m.editor.Focus()
		}
		m.importing = true
		m = m.info(fmt.Sprintf("Importing %s...", filepath.Base(path)))
		return m, tea.Batch(m.editor.Focus(), importFile(m.session, path))
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m model) update(fn func(settings.Settings) settings.Settings) model {
	st, err := m.session.UpdateSettings(fn)
	m.applyStyle(st)
	if err != nil {
		return m.fail(err)
	}
	return m.info("")
}

func (m model) step(up bool, r settings.Range, field func(*settings.Settings) *float64) model {
	return m.update(func(st settings.Settings) settings.Settings {
		v := field(&st)
		if up {
			*v = roundStep(*v+r.Step, r.Step)
		} else {
			*v = roundStep(*v-r.Step, r.Step)
		}
		return st
	})
}

func (m model) info(s string) model {
	m.status = s
	m.statusErr = false
	return m
}

func (m model) fail(err error) model {
	m.status = userMessage(err)
	m.statusErr = true
	return m
}

func (m *model) layout() {
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.prompt.Width = w - len(m.prompt.Prompt)
}

func (m *model) applyStyle(st settings.Settings) {
	page := pageStyle(st)
	m.editor.FocusedStyle.Base = page
	m.editor.FocusedStyle.Text = page
	m.editor.FocusedStyle.CursorLine = page
	m.editor.FocusedStyle.EndOfBuffer = page
	m.editor.BlurredStyle = m.editor.FocusedStyle
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	switch m.mode {
	case modeRead:
		st := m.session.Settings()
		if !m.session.TextVisible() {
			sb.WriteString(renderListening(st, m.width-2, m.height-3))
			break
		}
		mark := -1
		if i, ok := m.session.Highlight(); ok {
			mark = i
		}
		sb.WriteString(renderReading(m.session.Text(), st, m.width-2, m.height-3, mark))
	default:
		sb.WriteString(m.editor.View())
	}
	sb.WriteString("\n")

	if m.mode == modePrompt {
		sb.WriteString(m.prompt.View())
	} else {
		sb.WriteString(controlsStyle.Render("^O import  ^P play/stop  ^S export  ^Y copy  ^X clear  ^G capture screen  ^E mode  ^R read view  ^T theme  ^F font  F2/F3 size  F4/F5 line  F6/F7 spacing  F8/F9 rate  ^C quit"))
	}
	return sb.String()
}

func (m model) statusLine() string {
	st := m.session.Settings()
	stats := m.session.Stats()
	line := statusStyle.Render(fmt.Sprintf("%d words | %d sentences | %s %gpx | line %.1f | spacing %gpx | rate %.1fx | %s",
		stats.Words, stats.Sentences, st.Font, st.FontSizePx, st.LineHeight, st.LetterSpacingPx, st.SpeechRate, themeName(st)))

	if note := contrastNote(st); note != "" {
		line += busyStyle.Render(" [" + note + "]")
	}
	if m.session.SpeechState() == speech.StateSpeaking {
		line += speakingStyle.Render(" [SPEAKING]")
	}
	if rm := m.session.Mode(); rm != app.ModeRead {
		line += speakingStyle.Render(" [" + strings.ToUpper(string(rm)) + "]")
	}
	if m.importing {
		line += busyStyle.Render(" [IMPORTING]")
	}
	if m.status != "" {
		if m.statusErr {
			line += " " + errorStyle.Render(m.status)
		} else {
			line += " " + statusStyle.Render(m.status)
		}
	}
	return line
}

func pageStyle(st settings.Settings) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(st.BackgroundColor)).
		Foreground(lipgloss.Color(st.TextColor))
}

// renderReading lays text out with the letter spacing and line height
// approximated in terminal cells. The word at index mark, counted as in
// buffer.ParseWords, is highlighted; a negative mark highlights nothing.
func renderReading(text string, st settings.Settings, width, height, mark int) string {
	if width < 10 {
		width = 10
	}
	page := pageStyle(st)
	rows := readingRows(text, strings.Repeat(" ", letterCells(st.LetterSpacingPx)), width-2, mark, page.Render, highlightStyle.Render)
	body := strings.Join(rows, strings.Repeat("\n", lineGap(st.LineHeight)+1))

	style := page.Width(width).Padding(0, 1)
	if height > 0 {
		style = style.Height(height)
	}
	return style.Render(body)
}

// readingRows wraps each line of text to width cells, letter-spacing every
// word with gap. plain renders ordinary words and separators, marked the
// word at index mark.
func readingRows(text, gap string, width, mark int, plain, marked func(...string) string) []string {
	var rows []string
	word := 0
	for _, line := range strings.Split(text, "\n") {
		var row strings.Builder
		used := 0
		for _, w := range strings.Fields(line) {
			cell := spaceLetters(w, gap)
			n := lipgloss.Width(cell)
			if used > 0 && used+1+n > width {
				rows = append(rows, row.String())
				row.Reset()
				used = 0
			}
			if used > 0 {
				row.WriteString(plain(" "))
				used++
			}
			if word == mark {
				row.WriteString(marked(cell))
			} else {
				row.WriteString(plain(cell))
			}
			used += n
			word++
		}
		rows = append(rows, row.String())
	}
	return rows
}

// renderListening fills the reading view while the text is hidden.
func renderListening(st settings.Settings, width, height int) string {
	if width < 10 {
		width = 10
	}
	style := pageStyle(st).Width(width).Padding(1, 1).Align(lipgloss.Center)
	if height > 0 {
		style = style.Height(height)
	}
	return style.Render("Listening... press Ctrl+E to show the text")
}

// letterCells maps letter spacing in px onto whole terminal cells.
func letterCells(px float64) int {
	return int(math.Round(px / 2))
}

// lineGap is the number of blank rows inserted between lines for a line
// height multiplier.
func lineGap(lineHeight float64) int {
	gap := int(math.Round((lineHeight - 1) / 0.5))
	if gap < 0 {
		return 0
	}
	return gap
}

func roundStep(v, step float64) float64 {
	return math.Round(v/step) * step
}

func expandPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func importFile(s *app.Session, path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			return importDoneMsg{name: name, err: err}
		}
		defer f.Close()
		text, err := s.Import(context.Background(), f)
		return importDoneMsg{name: name, text: text, err: err}
	}
}

func captureScreen(s *app.Session) tea.Cmd {
	return func() tea.Msg {
		text, err := s.CaptureScreen(context.Background())
		return importDoneMsg{name: "screen capture", text: text, err: err}
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitSpeech(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return speechDoneMsg{}
	}
}

func newModel(s *app.Session) model {
	editor := textarea.New()
	editor.CharLimit = 0
	editor.ShowLineNumbers = false
	editor.Prompt = ""
	editor.SetValue(s.Text())
	editor.Focus()

	prompt := textinput.New()
	prompt.Prompt = "Import file: "
	prompt.Placeholder = strings.Join(importer.Extensions(), " ")

	m := model{
		session: s,
		editor:  editor,
		prompt:  prompt,
		width:   80,
		height:  24,
	}
	m.applyStyle(s.Settings())
	m.layout()
	return m
}

func main() {
	configPath := flag.String("config", "", "Path to config.json")
	reset := flag.Bool("reset", false, "Reset display settings to defaults")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Lexi - Dyslexia-Friendly Reading Aid\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  lexi [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported files: %s\n", strings.Join(importer.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+O   Import a file\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+P   Read aloud / stop\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+S   Export to text.txt\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+Y   Copy to clipboard\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+X   Clear text\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+G   Capture the screen and read it with OCR\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+E   Cycle read mode: read, highlight, listen\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+R   Toggle reading view\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+T   Next color theme\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+F   Toggle font\n")
		fmt.Fprintf(os.Stderr, "  F2-F9    Size, line height, spacing, speech rate\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+Z   Reset settings\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+C   Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Println(versionString())
		os.Exit(0)
	}

	session, logs, err := bootstrap(bootOptions{configPath: *configPath, reset: *reset})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logs.Close()

	m := newModel(session)
	if flag.NArg() > 0 {
		m.importing = true
		m.initial = importFile(session, flag.Arg(0))
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

