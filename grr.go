//go:build gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/metcalfc/lexi/internal/app"
	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/output"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
)

// uriFile adapts a picked file to importer.File.
type uriFile struct {
	fyne.URIReadCloser
}

func (f uriFile) Name() string { return f.URI().Name() }

// linesLayout stacks rows at a fixed pitch so the line height setting is
// visible.
type linesLayout struct {
	pitch float32
}

func (l *linesLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxW float32
	for _, o := range objects {
		if w := o.MinSize().Width; w > maxW {
			maxW = w
		}
	}
	return fyne.NewSize(maxW, l.pitch*float32(len(objects)))
}

func (l *linesLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for i, o := range objects {
		ms := o.MinSize()
		o.Move(fyne.NewPos(0, float32(i)*l.pitch+(l.pitch-ms.Height)/2))
		o.Resize(ms)
	}
}

// runLayout places objects left to right with no padding.
type runLayout struct{}

func (runLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var size fyne.Size
	for _, o := range objects {
		ms := o.MinSize()
		size.Width += ms.Width
		size.Height = max(size.Height, ms.Height)
	}
	return size
}

func (runLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var x float32
	for _, o := range objects {
		ms := o.MinSize()
		o.Move(fyne.NewPos(x, 0))
		o.Resize(ms)
		x += ms.Width
	}
}

var (
	highlightFill = color.NRGBA{R: 0xff, G: 0xff, A: 0xff}
	highlightText = color.Black
)

func hexColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	return c
}

// hairSpaces approximates letter spacing in px with U+200A hair spaces.
func hairSpaces(px float64) string {
	return strings.Repeat("\u200a", int(math.Round(px)))
}

type view struct {
	session *app.Session
	window  fyne.Window
	font    fyne.Resource

	preview     *fyne.Container
	previewBox  *container.Scroll
	split       *container.Split
	listening   *widget.Label
	modeGroup   *widget.RadioGroup
	captureBtn  *widget.Button
	status      *widget.Label
	editor      *widget.Entry
	openButton  *widget.Button
	playButton  *widget.Button
	stopButton  *widget.Button
	fontSelect  *widget.Select
	themeSelect *widget.Select
	sliders     map[string]*widget.Slider

	syncing bool
}

// render rebuilds the styled reading pane from the session.
func (v *view) render() {
	st := v.session.Settings()
	size := float32(st.FontSizePx)
	var source fyne.Resource
	if st.Font == settings.FontOpenDyslexic {
		source = v.font
	}

	width := v.previewBox.Size().Width - 2*theme.Padding()
	if width <= 0 {
		width = 400
	}
	gap := hairSpaces(st.LetterSpacingPx)
	measure := func(s string) float32 {
		sz, _ := fyne.CurrentApp().Driver().RenderedTextSize(spaceLetters(s, gap), size, fyne.TextStyle{}, source)
		return sz.Width
	}
	text := func(s string, c color.Color) *canvas.Text {
		t := canvas.NewText(spaceLetters(s, gap), c)
		t.TextSize = size
		t.FontSource = source
		return t
	}

	fg := hexColor(st.TextColor)
	mark, marking := v.session.Highlight()
	word := 0
	var rows []fyne.CanvasObject
	for _, line := range strings.Split(v.session.Text(), "\n") {
		for _, row := range wrapWords(line, width, measure) {
			words := strings.Fields(row)
			k := mark - word
			word += len(words)
			if !marking || k < 0 || k >= len(words) {
				rows = append(rows, text(row, fg))
				continue
			}
			// Split the row around the spoken word so it can sit on a fill.
			var parts []fyne.CanvasObject
			if before := strings.Join(words[:k], " "); before != "" {
				parts = append(parts, text(before+" ", fg))
			}
			parts = append(parts, container.NewStack(canvas.NewRectangle(highlightFill), text(words[k], highlightText)))
			if after := strings.Join(words[k+1:], " "); after != "" {
				parts = append(parts, text(" "+after, fg))
			}
			rows = append(rows, container.New(runLayout{}, parts...))
		}
	}

	lines := container.New(&linesLayout{pitch: size * float32(st.LineHeight)}, rows...)
	v.preview.Objects = []fyne.CanvasObject{
		canvas.NewRectangle(hexColor(st.BackgroundColor)),
		container.NewPadded(lines),
	}
	v.preview.Refresh()

	if v.session.TextVisible() {
		v.listening.Hide()
		v.split.Show()
	} else {
		v.split.Hide()
		v.listening.Show()
	}
	v.refreshStatus("")
}

func (v *view) refreshStatus(msg string) {
	st := v.session.Settings()
	stats := v.session.Stats()
	text := fmt.Sprintf("%d words | %d sentences | %s %gpx | line %.1f | spacing %gpx | rate %.1fx | %s",
		stats.Words, stats.Sentences, st.Font, st.FontSizePx, st.LineHeight, st.LetterSpacingPx, st.SpeechRate, themeName(st))
	if st.Font == settings.FontOpenDyslexic && v.font == nil {
		text += " | OpenDyslexic not loaded (-font-file)"
	}
	if note := contrastNote(st); note != "" {
		text += " | " + note
	}
	if v.session.SpeechState() == speech.StateSpeaking {
		text += " [SPEAKING]"
	}
	if rm := v.session.Mode(); rm != app.ModeRead {
		text += " [" + strings.ToUpper(string(rm)) + "]"
	}
	if v.session.Importing() {
		text += " [IMPORTING]"
	}
	if msg != "" {
		text += " | " + msg
	}
	v.status.SetText(text)
}

func (v *view) refreshSpeech() {
	if v.session.SpeechState() == speech.StateSpeaking {
		v.playButton.Disable()
		v.stopButton.Enable()
	} else {
		v.playButton.Enable()
		v.stopButton.Disable()
	}
	if !v.session.SpeechSupported() {
		v.playButton.Disable()
	}
	v.render()
}

// syncControls copies settings into the widgets without triggering saves.
func (v *view) syncControls() {
	st := v.session.Settings()
	v.syncing = true
	defer func() { v.syncing = false }()

	v.fontSelect.SetSelected(string(st.Font))
	if t, ok := st.MatchTheme(); ok {
		v.themeSelect.SetSelected(t.Name)
	} else {
		v.themeSelect.ClearSelected()
	}
	v.sliders["size"].SetValue(st.FontSizePx)
	v.sliders["line"].SetValue(st.LineHeight)
	v.sliders["spacing"].SetValue(st.LetterSpacingPx)
	v.sliders["rate"].SetValue(st.SpeechRate)
	v.modeGroup.SetSelected(string(v.session.Mode()))
}

func (v *view) update(fn func(settings.Settings) settings.Settings) {
	if v.syncing {
		return
	}
	if _, err := v.session.UpdateSettings(fn); err != nil {
		dialog.ShowError(err, v.window)
	}
	v.render()
}

func (v *view) showError(err error) {
	dialog.ShowError(errors.New(userMessage(err)), v.window)
	v.refreshStatus("")
}

func (v *view) slider(key string, r settings.Range, set func(*settings.Settings, float64)) *widget.Slider {
	s := widget.NewSlider(r.Min, r.Max)
	s.Step = r.Step
	s.OnChanged = func(value float64) {
		v.update(func(st settings.Settings) settings.Settings {
			set(&st, value)
			return st
		})
	}
	v.sliders[key] = s
	return s
}

func (v *view) pickColor(title string, set func(*settings.Settings, string)) {
	picker := dialog.NewColorPicker(title, "", func(c color.Color) {
		cc, ok := colorful.MakeColor(c)
		if !ok {
			return
		}
		v.update(func(st settings.Settings) settings.Settings {
			set(&st, cc.Hex())
			return st
		})
		v.syncControls()
	}, v.window)
	picker.Advanced = true
	picker.Show()
}

// openFile shows a fresh picker for each attempt.
func (v *view) openFile() {
	if v.session.Importing() {
		v.showError(app.ErrImportBusy)
		return
	}
	picker := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			v.showError(err)
			return
		}
		if rc == nil {
			return
		}
		name := rc.URI().Name()
		v.loading("Importing " + name)
		go func() {
			defer rc.Close()
			text, err := v.session.Import(context.Background(), uriFile{rc})
			fyne.Do(func() { v.loaded("Imported "+name, text, err) })
		}()
	}, v.window)
	picker.SetFilter(storage.NewExtensionFileFilter(importer.Extensions()))
	picker.Show()
}

// captureScreen hides the window long enough to grab what is behind it.
func (v *view) captureScreen() {
	if v.session.Importing() {
		v.showError(app.ErrImportBusy)
		return
	}
	v.loading("Capturing screen")
	v.window.Hide()
	go func() {
		time.Sleep(500 * time.Millisecond)
		text, err := v.session.CaptureScreen(context.Background())
		fyne.Do(func() {
			v.window.Show()
			v.loaded("Captured screen", text, err)
		})
	}()
}

func (v *view) loading(msg string) {
	v.openButton.Disable()
	v.captureBtn.Disable()
	v.refreshStatus(msg)
}

func (v *view) loaded(msg, text string, err error) {
	v.openButton.Enable()
	v.captureBtn.Enable()
	if err != nil {
		v.showError(err)
		return
	}
	v.syncing = true
	v.editor.SetText(text)
	v.modeGroup.SetSelected(string(v.session.Mode()))
	v.syncing = false
	v.render()
	v.refreshStatus(msg)
}

func (v *view) setMode(name string) {
	if v.syncing || name == "" {
		return
	}
	rm, err := app.ParseReadMode(name)
	if err != nil {
		v.showError(err)
		return
	}
	if _, err := v.session.SetMode(rm); err != nil {
		v.showError(err)
		v.syncing = true
		v.modeGroup.SetSelected(string(v.session.Mode()))
		v.syncing = false
	}
	v.refreshSpeech()
}

func (v *view) build() fyne.CanvasObject {
	v.sliders = make(map[string]*widget.Slider)
	v.status = widget.NewLabel("")
	v.preview = container.NewStack()
	v.previewBox = container.NewVScroll(v.preview)

	v.editor = widget.NewMultiLineEntry()
	v.editor.Wrapping = fyne.TextWrapWord
	v.editor.SetText(v.session.Text())
	v.editor.OnChanged = func(text string) {
		if v.syncing {
			return
		}
		v.session.SetText(text)
		v.render()
	}

	fonts := []string{string(settings.FontNormal), string(settings.FontOpenDyslexic)}
	v.fontSelect = widget.NewSelect(fonts, func(s string) {
		f, ok := settings.ParseFont(s)
		if !ok {
			return
		}
		v.update(func(st settings.Settings) settings.Settings {
			st.Font = f
			return st
		})
	})
	v.themeSelect = widget.NewSelect(settings.ThemeNames(), func(name string) {
		if v.syncing || name == "" {
			return
		}
		if _, err := v.session.ApplyTheme(name); err != nil {
			v.showError(err)
		}
		v.render()
	})

	form := widget.NewForm(
		widget.NewFormItem("Font", v.fontSelect),
		widget.NewFormItem("Size", v.slider("size", settings.FontSizeRange, func(st *settings.Settings, x float64) { st.FontSizePx = x })),
		widget.NewFormItem("Line height", v.slider("line", settings.LineHeightRange, func(st *settings.Settings, x float64) { st.LineHeight = x })),
		widget.NewFormItem("Letter spacing", v.slider("spacing", settings.LetterSpacingRange, func(st *settings.Settings, x float64) { st.LetterSpacingPx = x })),
		widget.NewFormItem("Theme", v.themeSelect),
		widget.NewFormItem("Colors", container.NewHBox(
			widget.NewButtonWithIcon("Background", theme.ColorPaletteIcon(), func() {
				v.pickColor("Background color", func(st *settings.Settings, hex string) { st.BackgroundColor = hex })
			}),
			widget.NewButtonWithIcon("Text", theme.ColorPaletteIcon(), func() {
				v.pickColor("Text color", func(st *settings.Settings, hex string) { st.TextColor = hex })
			}),
		)),
		widget.NewFormItem("Speech rate", v.slider("rate", settings.SpeechRateRange, func(st *settings.Settings, x float64) { st.SpeechRate = x })),
	)

	v.openButton = widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), v.openFile)
	v.captureBtn = widget.NewButtonWithIcon("Capture screen", theme.ComputerIcon(), v.captureScreen)
	v.playButton = widget.NewButtonWithIcon("Read aloud", theme.MediaPlayIcon(), func() {
		if _, err := v.session.Play(); err != nil {
			v.showError(err)
		}
		v.refreshSpeech()
	})
	v.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		v.session.Stop()
		v.refreshSpeech()
	})
	toolbar := container.NewHBox(
		v.openButton,
		v.captureBtn,
		v.playButton,
		v.stopButton,
		widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), func() {
			path, err := v.session.Export()
			if err != nil {
				v.showError(err)
				return
			}
			v.refreshStatus("Exported to " + path)
		}),
		widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), func() {
			if err := v.session.Copy(); err != nil {
				v.showError(err)
				return
			}
			v.refreshStatus("Copied to clipboard")
		}),
		widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), func() {
			v.session.Clear()
			v.syncing = true
			v.editor.SetText("")
			v.syncing = false
			v.render()
		}),
		widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() {
			if _, err := v.session.ResetSettings(); err != nil {
				v.showError(err)
			}
			v.syncControls()
			v.render()
		}),
	)

	modes := make([]string, len(app.ReadModes))
	for i, rm := range app.ReadModes {
		modes[i] = string(rm)
	}
	v.modeGroup = widget.NewRadioGroup(modes, v.setMode)
	v.modeGroup.Horizontal = true
	v.modeGroup.Required = true
	form.Append("Mode", v.modeGroup)

	v.listening = widget.NewLabelWithStyle("Listening...", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	v.listening.Hide()
	v.split = container.NewHSplit(v.editor, v.previewBox)
	v.split.Offset = 0.4
	return container.NewBorder(
		container.NewVBox(toolbar, form),
		v.status,
		nil, nil,
		container.NewStack(v.split, v.listening),
	)
}

func main() {
	configPath := flag.String("config", "", "Path to config.json")
	fontFile := flag.String("font-file", "", "Path to an OpenDyslexic font file (.otf/.ttf)")
	reset := flag.Bool("reset", false, "Reset display settings to defaults")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Lexi - Dyslexia-Friendly Reading Aid (desktop)\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  lexi [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported files: %s\n", strings.Join(importer.SupportedFormats(), ", "))
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Println(versionString())
		os.Exit(0)
	}

	a := fyneapp.NewWithID("io.github.metcalfc.lexi")
	w := a.NewWindow("Lexi - Reading Aid")
	v := &view{window: w}

	session, logs, err := bootstrap(bootOptions{
		configPath: *configPath,
		reset:      *reset,
		onSpeech: func(speech.State) {
			fyne.Do(func() {
				if v.playButton != nil {
					v.refreshSpeech()
				}
			})
		},
		extra: []app.Option{app.WithClipboard(output.ClipboardFunc(func(text string) error {
			a.Clipboard().SetContent(text)
			return nil
		}))},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logs.Close()
	v.session = session

	if *fontFile != "" {
		res, err := fyne.LoadResourceFromPath(*fontFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: font not loaded: %v\n", err)
		} else {
			v.font = res
		}
	}

	w.SetContent(v.build())
	w.Resize(fyne.NewSize(1100, 720))
	v.syncControls()
	v.refreshSpeech()
	v.render()

	// Re-wrap the reading pane when it changes width and follow the
	// spoken word while highlighting.
	done := make(chan struct{})
	var closeOnce sync.Once
	go func() {
		var lastWidth float32
		lastMark := -1
		for {
			select {
			case <-done:
				return
			case <-time.After(150 * time.Millisecond):
				mark, ok := session.Highlight()
				if !ok {
					mark = -1
				}
				width := v.previewBox.Size().Width
				if (width > 0 && width != lastWidth) || mark != lastMark {
					lastWidth, lastMark = width, mark
					fyne.Do(v.render)
				}
			}
		}
	}()

	w.SetOnClosed(func() {
		session.Stop()
		closeOnce.Do(func() { close(done) })
	})
	w.ShowAndRun()
}
