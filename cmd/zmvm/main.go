package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mtwombley/gozm/selectstoryui"
	"github.com/mtwombley/gozm/zmachine"
	"github.com/muesli/reflow/wordwrap"
)

var (
	romFilePath  string
	baseAppStyle lipgloss.Style
)

type printMessage zmachine.Print
type statusBarMessage zmachine.StatusBarUpdate
type splitWindowMessage zmachine.SplitWindow
type setWindowMessage zmachine.SetWindow
type setCursorMessage zmachine.SetCursor
type eraseWindowMessage zmachine.EraseWindow
type inputRequestMessage zmachine.InputRequest
type saveRequestMessage zmachine.Save
type restoreRequestMessage zmachine.Restore
type restartRequest bool
type runtimeErrorMessage zmachine.RuntimeError
type warningMessage zmachine.Warning

// keyToZChar maps Bubble Tea key messages to Z-machine character codes,
// following the function/cursor key layout of section 3.8 of the standard.
func keyToZChar(msg tea.KeyMsg) uint8 {
	switch msg.Type {
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	case tea.KeyF1:
		return 133
	case tea.KeyF2:
		return 134
	case tea.KeyF3:
		return 135
	case tea.KeyF4:
		return 136
	case tea.KeyF5:
		return 137
	case tea.KeyF6:
		return 138
	case tea.KeyF7:
		return 139
	case tea.KeyF8:
		return 140
	case tea.KeyF9:
		return 141
	case tea.KeyF10:
		return 142
	case tea.KeyF11:
		return 143
	case tea.KeyF12:
		return 144
	case tea.KeyEscape:
		return 27
	case tea.KeyEnter:
		return 13
	case tea.KeyDelete, tea.KeyBackspace:
		return 8
	default:
		return 0
	}
}

type runningStoryState int

const (
	appRunning runningStoryState = iota
	appWaitingForLine
	appWaitingForChar
)

type runStoryModel struct {
	outputChannel <-chan any
	sendChannel   chan<- any
	zMachine      *zmachine.ZMachine
	romBytes      []byte
	romFilePath   string

	statusBar zmachine.StatusBarUpdate

	lowerWindowTextPreStyled string
	lowerWindowText          string

	activeWindow      int
	upperWindowHeight int
	upperWindowText   []string
	upperWindowStyle  [][]lipgloss.Style
	cursorX, cursorY  int

	appState runningStoryState
	inputBox textinput.Model

	width, height int

	backgroundStyle  lipgloss.Style
	statusBarStyle   lipgloss.Style
	lowerWindowStyle lipgloss.Style

	runtimeError string
}

func (m runStoryModel) Init() tea.Cmd {
	return tea.Batch(
		waitForInterpreter(m.outputChannel),
		runInterpreter(m.zMachine),
		tea.Sequence(
			tea.SetWindowTitle(romFilePath),
			tea.WindowSize(),
		),
	)
}

func runInterpreter(z *zmachine.ZMachine) tea.Cmd {
	return func() tea.Msg {
		z.Run()
		return nil
	}
}

func styleFor(style zmachine.TextStyle) lipgloss.Style {
	s := lipgloss.NewStyle()
	if style&zmachine.Bold == zmachine.Bold {
		s = s.Bold(true)
	}
	if style&zmachine.Italic == zmachine.Italic {
		s = s.Italic(true)
	}
	if style&zmachine.ReverseVideo == zmachine.ReverseVideo {
		s = s.Reverse(true)
	}
	return s
}

func (m *runStoryModel) resizeUpperWindow() {
	if m.height < m.upperWindowHeight {
		m.upperWindowHeight = m.height
	}
	for len(m.upperWindowText) < m.upperWindowHeight {
		m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
		m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
	}
	if len(m.upperWindowText) > m.upperWindowHeight {
		m.upperWindowText = m.upperWindowText[:m.upperWindowHeight]
		m.upperWindowStyle = m.upperWindowStyle[:m.upperWindowHeight]
	}
	for ix, row := range m.upperWindowText {
		if m.width < len(row) {
			m.upperWindowText[ix] = row[:m.width]
			m.upperWindowStyle[ix] = m.upperWindowStyle[ix][:m.width]
		} else if m.width > len(row) {
			for ii := len(row); ii < m.width; ii++ {
				m.upperWindowText[ix] += " "
				m.upperWindowStyle[ix] = append(m.upperWindowStyle[ix], baseAppStyle)
			}
		}
	}
}

func (m *runStoryModel) clearUpperWindow() {
	for row := range m.upperWindowText {
		m.upperWindowText[row] = strings.Repeat(" ", m.width)
		m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
	}
}

func (m runStoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeUpperWindow()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			os.Exit(0)
		}

		switch m.appState {
		case appWaitingForChar:
			m.appState = appRunning
			if len(msg.Runes) > 0 {
				m.sendChannel <- zmachine.InputResponse{Text: string(msg.Runes[0])}
			} else if code := keyToZChar(msg); code != 0 {
				m.sendChannel <- zmachine.InputResponse{Text: string(rune(code))}
			}
		case appWaitingForLine:
			if msg.Type == tea.KeyEnter {
				m.appState = appRunning
				m.lowerWindowText += m.inputBox.Value() + "\n"
				m.sendChannel <- zmachine.InputResponse{Text: m.inputBox.Value()}
				m.inputBox.SetValue("")
			}
		}

	case printMessage:
		if msg.Window == 0 {
			m.lowerWindowText += msg.Text
		} else {
			style := styleFor(msg.Style)
			segments := strings.Split(msg.Text, "\n")
			for segIdx, segment := range segments {
				if m.cursorY >= 0 && m.cursorY < len(m.upperWindowText) {
					row := m.upperWindowText[m.cursorY]
					for i := 0; i < len(segment) && m.cursorX+i < len(m.upperWindowStyle[m.cursorY]); i++ {
						m.upperWindowStyle[m.cursorY][m.cursorX+i] = style
					}
					if m.cursorX < len(row) {
						before := row[:m.cursorX]
						afterStart := m.cursorX + len(segment)
						after := ""
						if afterStart < len(row) {
							after = row[afterStart:]
						}
						full := before + segment + after
						if len(full) > m.width {
							full = full[:m.width]
						}
						m.upperWindowText[m.cursorY] = full
					}
					m.cursorX += len(segment)
				}
				if segIdx < len(segments)-1 {
					m.cursorY++
					m.cursorX = 0
				}
			}
		}
		return m, waitForInterpreter(m.outputChannel)

	case statusBarMessage:
		m.statusBar = zmachine.StatusBarUpdate(msg)
		return m, waitForInterpreter(m.outputChannel)

	case splitWindowMessage:
		m.upperWindowHeight = msg.Lines
		m.resizeUpperWindow()
		return m, waitForInterpreter(m.outputChannel)

	case setWindowMessage:
		m.activeWindow = msg.Window
		if m.activeWindow == 1 {
			m.cursorX, m.cursorY = 0, 0
		}
		return m, waitForInterpreter(m.outputChannel)

	case setCursorMessage:
		m.cursorY = msg.Line - 1
		m.cursorX = msg.Column - 1
		return m, waitForInterpreter(m.outputChannel)

	case eraseWindowMessage:
		switch msg.Window {
		case -1:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			m.upperWindowHeight = 0
			m.clearUpperWindow()
		case -2:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			m.clearUpperWindow()
		case 0:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
		case 1:
			m.clearUpperWindow()
		}
		return m, waitForInterpreter(m.outputChannel)

	case inputRequestMessage:
		if msg.Kind == zmachine.InputChar {
			m.appState = appWaitingForChar
		} else {
			m.appState = appWaitingForLine
		}
		return m, waitForInterpreter(m.outputChannel)

	case saveRequestMessage:
		if msg.NumBytes == 0 {
			filename := msg.Filename
			if filename == "" {
				filename = m.defaultSaveFilename()
			}
			err := os.WriteFile(filename, m.zMachine.ExportSaveState(), 0644)
			m.sendChannel <- zmachine.SaveResponse{Success: err == nil, Result: boolToUint16(err == nil)}
		} else {
			filename := msg.Filename
			if filename == "" {
				filename = m.defaultSaveFilename() + ".aux"
			}
			err := os.WriteFile(filename, msg.Data, 0644)
			m.sendChannel <- zmachine.SaveResponse{Success: err == nil, Result: boolToUint16(err == nil)}
		}
		return m, waitForInterpreter(m.outputChannel)

	case restoreRequestMessage:
		filename := msg.Filename
		if filename == "" {
			if msg.NumBytes == 0 {
				filename = m.defaultSaveFilename()
			} else {
				filename = m.defaultSaveFilename() + ".aux"
			}
		}
		data, err := os.ReadFile(filename)
		m.sendChannel <- zmachine.RestoreResponse{Success: err == nil, Data: data}
		return m, waitForInterpreter(m.outputChannel)

	case restartRequest:
		zOut := make(chan any)
		zIn := make(chan any)
		zMachine, err := zmachine.LoadRom(m.romBytes, zOut, zIn)
		if err != nil {
			m.runtimeError = err.Error()
			return m, tea.Quit
		}
		m.zMachine = zMachine
		m.outputChannel = zOut
		m.sendChannel = zIn

		m.lowerWindowText = ""
		m.lowerWindowTextPreStyled = ""
		m.upperWindowHeight = 0
		m.clearUpperWindow()
		m.appState = appRunning
		return m, tea.Batch(
			waitForInterpreter(m.outputChannel),
			runInterpreter(m.zMachine),
		)

	case runtimeErrorMessage:
		m.runtimeError = zmachine.RuntimeError(msg).Error()
		return m, tea.Quit

	case warningMessage:
		fmt.Fprintf(os.Stderr, "%s\n", zmachine.Warning(msg))
		return m, waitForInterpreter(m.outputChannel)
	}

	if m.appState == appWaitingForLine {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}

	return m, cmd
}

func boolToUint16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func (m *runStoryModel) prerenderLowerWindowText() {
	if m.lowerWindowText != "" {
		lines := strings.Split(m.lowerWindowText, "\n")
		for ix, line := range lines {
			lines[ix] = m.lowerWindowStyle.Render(line)
		}
		m.lowerWindowTextPreStyled += strings.Join(lines, "\n")
		m.lowerWindowText = ""
	}
}

// defaultSaveFilename derives a save filename from the ROM file path,
// replacing a .z* extension with .sav.
func (m runStoryModel) defaultSaveFilename() string {
	if m.romFilePath == "" {
		return "game.sav"
	}
	base := filepath.Base(m.romFilePath)
	ext := filepath.Ext(base)
	if len(ext) >= 2 && (ext[1] == 'z' || ext[1] == 'Z') {
		base = base[:len(base)-len(ext)]
	}
	return base + ".sav"
}

func createStatusLine(width int, placeName string, scoreOrHours int, movesOrMinutes int, isTimeBasedGame bool) string {
	rightHandSide := fmt.Sprintf("Score: %d    Moves %d", scoreOrHours, movesOrMinutes)
	if isTimeBasedGame {
		rightHandSide = fmt.Sprintf("Time: %d:%d", scoreOrHours, movesOrMinutes)
	}

	if len(rightHandSide) >= width {
		return rightHandSide[:width]
	}
	if len(placeName)+len(rightHandSide)+1 >= width {
		return fmt.Sprintf("%s %s", placeName[:width-len(rightHandSide)-1], rightHandSide)
	}

	numberSpaces := width - len(placeName) - len(rightHandSide)
	return fmt.Sprintf("%s%s%s", placeName, strings.Repeat(" ", numberSpaces), rightHandSide)
}

func (m runStoryModel) View() string {
	if m.runtimeError != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errorStyle.Render("Z-Machine Error:"), m.runtimeError)
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := strings.Builder{}
	lowerWindowHeight := m.height

	if m.statusBar.ObjectName != "" {
		scoreOrHours, movesOrMinutes := int(m.statusBar.Score), int(m.statusBar.Turns)
		if m.statusBar.IsTimeGame {
			scoreOrHours, movesOrMinutes = int(m.statusBar.Hours), int(m.statusBar.Minutes)
		}
		s.WriteString(m.statusBarStyle.Render(createStatusLine(m.width, m.statusBar.ObjectName, scoreOrHours, movesOrMinutes, m.statusBar.IsTimeGame)))
		s.WriteString(m.lowerWindowStyle.Render("\n"))
		lowerWindowHeight -= 2
	} else {
		lowerWindowHeight -= m.upperWindowHeight

		var text strings.Builder
		var currentText strings.Builder
		var currentStyle lipgloss.Style
		for row, styleRow := range m.upperWindowStyle {
			for col, chrStyle := range styleRow {
				if chrStyle.GetBold() != currentStyle.GetBold() ||
					chrStyle.GetItalic() != currentStyle.GetItalic() ||
					chrStyle.GetReverse() != currentStyle.GetReverse() {
					if currentText.Len() > 0 {
						text.WriteString(currentStyle.Render(currentText.String()))
					}
					currentStyle = chrStyle
					currentText.Reset()
				}
				currentText.WriteRune([]rune(m.upperWindowText[row])[col])
			}
			currentText.WriteByte('\n')
		}
		if currentText.Len() > 0 {
			text.WriteString(currentStyle.Render(currentText.String()))
		}
		s.WriteString(text.String())
	}

	m.prerenderLowerWindowText()
	wordWrappedBody := wordwrap.String(m.lowerWindowTextPreStyled, m.width)

	lines := strings.Split(wordWrappedBody, "\n")
	if len(lines) > lowerWindowHeight-2 {
		lines = lines[len(lines)-lowerWindowHeight+2:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	if m.appState == appWaitingForLine {
		s.WriteString(m.lowerWindowStyle.Render("\n" + m.inputBox.View()))
	}

	return m.backgroundStyle.Width(m.width).Height(m.height).Render(s.String())
}

func waitForInterpreter(sub <-chan any) tea.Cmd {
	return func() tea.Msg {
		msg := <-sub
		switch msg := msg.(type) {
		case zmachine.Print:
			return printMessage(msg)
		case zmachine.StatusBarUpdate:
			return statusBarMessage(msg)
		case zmachine.SplitWindow:
			return splitWindowMessage(msg)
		case zmachine.SetWindow:
			return setWindowMessage(msg)
		case zmachine.SetCursor:
			return setCursorMessage(msg)
		case zmachine.EraseWindow:
			return eraseWindowMessage(msg)
		case zmachine.InputRequest:
			return inputRequestMessage(msg)
		case zmachine.Save:
			return saveRequestMessage(msg)
		case zmachine.Restore:
			return restoreRequestMessage(msg)
		case zmachine.Quit:
			return tea.Quit()
		case zmachine.Restart:
			return restartRequest(true)
		case zmachine.RuntimeError:
			return runtimeErrorMessage(msg)
		case zmachine.Warning:
			return warningMessage(msg)
		default:
			return runtimeErrorMessage(zmachine.RuntimeError{Message: "invalid message type sent from interpreter"})
		}
	}
}

func init() {
	flag.StringVar(&romFilePath, "rom", "", "The path of a z-machine rom")
	flag.Parse()
}

func newApplicationModel(zMachine *zmachine.ZMachine, outputChannel <-chan any, sendChannel chan<- any, romBytes []byte, romPath string) tea.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20
	ti.Prompt = ""

	return runStoryModel{
		outputChannel:    outputChannel,
		sendChannel:      sendChannel,
		zMachine:         zMachine,
		romBytes:         romBytes,
		romFilePath:      romPath,
		appState:         appRunning,
		inputBox:         ti,
		lowerWindowStyle: lipgloss.NewStyle(),
		statusBarStyle:   lipgloss.NewStyle().Reverse(true),
		backgroundStyle:  lipgloss.NewStyle(),
	}
}

func main() {
	var model tea.Model

	if romFilePath != "" {
		romFileBytes, err := os.ReadFile(romFilePath)
		if err != nil {
			panic(err)
		}
		zOut := make(chan any)
		zIn := make(chan any)
		zMachine, err := zmachine.LoadRom(romFileBytes, zOut, zIn)
		if err != nil {
			fmt.Println("Error loading story:", err)
			os.Exit(1)
		}

		model = newApplicationModel(zMachine, zOut, zIn, romFileBytes, romFilePath)
	} else {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = "."
		} else {
			cacheDir = filepath.Join(cacheDir, "gozm")
		}
		model = selectstoryui.NewUIModel(newApplicationModel, cacheDir)
	}

	tui := tea.NewProgram(model)

	if _, err := tui.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
