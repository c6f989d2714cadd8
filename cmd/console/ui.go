package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	AppTitle     = "BABBLE"
	tickInterval = 100 * time.Millisecond
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	player     *Player
	transcript viewport.Model
	metaPanel  viewport.Model
	confidence progress.Model
	ready      bool
	width      int
	height     int
	status     string
	err        error

	// Scene selection state
	showSceneModal bool
	scenes         []string
	selectedScene  int

	// Quit confirmation state
	showQuitModal bool
}

type tickMsg time.Time

var titleCaser = cases.Title(language.English)

var (
	transcriptPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	cardKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	qualityStyles = map[dialogue.Quality]lipgloss.Style{
		dialogue.QualityGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		dialogue.QualityNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		dialogue.QualityBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(player *Player) ConsoleUI {
	transcriptVp := viewport.New(50, 20)
	transcriptVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 40

	m := ConsoleUI{
		player:     player,
		transcript: transcriptVp,
		metaPanel:  metaVp,
		confidence: bar,
	}
	if !player.Active() {
		m.openSceneModal()
	}
	return m
}

func (m *ConsoleUI) openSceneModal() {
	m.scenes = m.player.Scenes()
	m.selectedScene = 0
	m.showSceneModal = true
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func qualityLabel(q dialogue.Quality) string {
	style, ok := qualityStyles[q]
	if !ok {
		style = qualityStyles[dialogue.QualityNeutral]
	}
	return style.Render(titleCaser.String(string(q)))
}

func (m ConsoleUI) Init() tea.Cmd {
	return tick()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeContent()
		return m, nil

	case tickMsg:
		m.player.Tick()
		m.metaPanel.SetContent(m.writeMetadata())
		return m, tick()
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showSceneModal {
		return m.updateSceneModal(msg)
	}

	var vpCmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}

		switch key := msg.String(); key {
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.playSlot(int(key[0] - '1'))
		case "s":
			m.save()
			return m, nil
		case "c":
			m.copyExport()
			return m, nil
		case "n":
			if !m.player.Active() {
				m.openSceneModal()
			}
			return m, nil
		}
	}

	m.transcript, vpCmd = m.transcript.Update(msg)
	return m, vpCmd
}

func (m *ConsoleUI) resize() {
	transcriptWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - transcriptWidth - 6

	m.transcript.Width = transcriptWidth - 2
	m.transcript.Height = m.height - 4
	m.metaPanel.Width = metaWidth - 2
	m.metaPanel.Height = m.height - 4
	m.confidence.Width = max(metaWidth-4, 10)
}

func (m ConsoleUI) playSlot(i int) (tea.Model, tea.Cmd) {
	if !m.player.Active() {
		return m, nil
	}
	play, ended, err := m.player.Play(context.Background(), i)
	m.err = err
	if err == nil {
		m.status = fmt.Sprintf("Scored %+.1f (%s)", play.Score, titleCaser.String(string(dialogue.Band(play.Score, encounter.PlayThreshold))))
		if ended {
			m.status = "Encounter complete. Press N for the next scene."
		}
	}
	m.writeContent()
	return m, nil
}

func (m *ConsoleUI) save() {
	if err := m.player.Save(context.Background()); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "Progress saved."
}

func (m *ConsoleUI) copyExport() {
	data, err := m.player.Export()
	if err == nil {
		err = clipboard.WriteAll(string(data))
	}
	if err != nil {
		m.err = fmt.Errorf("copy save: %w", err)
		return
	}
	m.err = nil
	m.status = "Save data copied to clipboard."
}

// writeContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeContent() {
	width := m.transcript.Width - 6
	if width <= 0 {
		width = 40
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(AppTitle) + "\n\n")
	if enc := m.player.Encounter(); enc != nil {
		content.WriteString(enc.SceneName() + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")

	for _, line := range m.player.Transcript() {
		switch line.Kind {
		case LineNarration:
			content.WriteString(formatNarration(line.Text, width) + "\n\n")
		case LinePlay:
			content.WriteString(playStyle.Render("You: ") + wordwrap.String(line.Text, width-5) + "\n\n")
		case LineSystem:
			content.WriteString(statusStyle.Render(wordwrap.String(line.Text, width)) + "\n\n")
		}
	}

	if hand := m.player.Hand(); len(hand) > 0 {
		content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")
		for i, c := range hand {
			key := cardKeyStyle.Render(fmt.Sprintf("[%d] ", i+1))
			content.WriteString(key + wordwrap.String(c.Card.Text, width-4) + "\n")
		}
	}

	m.transcript.SetContent(content.String())
	m.transcript.GotoBottom()
	m.metaPanel.SetContent(m.writeMetadata())
}

// formatNarration wraps a node body and highlights a leading "Speaker:".
func formatNarration(text string, width int) string {
	wrapped := wordwrap.String(text, width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 && idx <= 20 {
			speaker := line[:idx]
			if len(strings.Fields(speaker)) <= 2 {
				lines[i] = speakerStyle.Render(speaker+":") + line[idx+1:]
				continue
			}
		}
		lines[i] = narratorStyle.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME") + "\n\n")

	content.WriteString("Player:\n")
	content.WriteString(m.player.PlayerID().String()[:8] + "...\n\n")

	if enc := m.player.Encounter(); enc != nil {
		content.WriteString("Scene:\n")
		content.WriteString(enc.SceneName() + "\n\n")

		content.WriteString("Mood:\n")
		content.WriteString(fmt.Sprintf("%.1f %s\n\n", enc.Mood(), qualityLabel(enc.MoodQuality())))

		content.WriteString("Last play:\n")
		content.WriteString(qualityLabel(enc.LastPlayQuality()) + "\n\n")

		content.WriteString("Confidence:\n")
		content.WriteString(m.confidence.ViewAs(m.player.Confidence()) + "\n\n")

		content.WriteString("Deck:\n")
		content.WriteString(fmt.Sprintf("%d cards\n\n", enc.Dealer().Len(dealer.ZoneDeck)))
	}

	completed := m.player.Completed()
	content.WriteString("Completed:\n")
	if len(completed) == 0 {
		content.WriteString("None yet\n")
	}
	for _, scene := range completed {
		content.WriteString(fmt.Sprintf("• %s\n", scene))
	}

	content.WriteString("\n")
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.status != "" {
		content.WriteString(statusStyle.Render(m.status) + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• 1-9: Play card\n")
	content.WriteString("• S: Save\n")
	content.WriteString("• C: Copy save\n")
	content.WriteString("• N: Next scene\n")
	content.WriteString("• Esc: Quit\n")

	return content.String()
}

func (m ConsoleUI) updateSceneModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
	case tea.KeyUp:
		if m.selectedScene > 0 {
			m.selectedScene--
		}
	case tea.KeyDown:
		if m.selectedScene < len(m.scenes)-1 {
			m.selectedScene++
		}
	case tea.KeyEnter:
		if len(m.scenes) == 0 {
			return m, nil
		}
		if err := m.player.Start(m.scenes[m.selectedScene]); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.showSceneModal = false
		m.writeContent()
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
		return m.quit()
	}
	switch keyMsg.String() {
	case "y", "Y":
		return m.quit()
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

// quit saves progress; an unfinished encounter is resumed next time.
func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	m.save()
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress will be saved.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSceneModal() string {
	var content strings.Builder

	switch {
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
	case len(m.scenes) == 0:
		content.WriteString(modalTitleStyle.Render("Campaign Complete"))
		content.WriteString("\n\n")
		content.WriteString("Every encounter has been played.")
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Press Esc to exit"))
	}

	if len(m.scenes) > 0 {
		content.WriteString(modalTitleStyle.Render("Select a Scene"))
		content.WriteString("\n\n")
		for i, scene := range m.scenes {
			if i == m.selectedScene {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", scene)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", scene)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready || m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showSceneModal {
		return m.renderSceneModal()
	}

	transcriptWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - transcriptWidth - 6

	transcriptPanel := transcriptPanelStyle.Width(transcriptWidth).Height(m.height - 3).Render(
		m.transcript.View(),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaPanel.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, transcriptPanel, metaPanel)
}
