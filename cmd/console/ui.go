package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/prompts"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	campaign     *campaign.Campaign
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Setting selection state
	showSettingModal bool
	settings         []string
	settingMap       map[string]string
	selectedSetting  int
	loadingSettings  bool

	// Quit confirmation state
	showQuitModal bool

	spinnerTick int
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type campaignMsg struct {
	campaign *campaign.Campaign
	err      error
}

type settingsLoadedMsg struct {
	settings   []string
	settingMap map[string]string
	err        error
}

type campaignCreatedMsg struct {
	campaign *campaign.Campaign
	err      error
}

type spinnerTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Strikethrough(true)

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

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:           cfg,
		client:           client,
		textarea:         ta,
		chatViewport:     chatVp,
		metaViewport:     metaVp,
		ready:            false,
		showSettingModal: true,
		loadingSettings:  true,
		selectedSetting:  0,
	}
}

func writeMetadata(c *campaign.Campaign) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CAMPAIGN") + "\n\n")

	content.WriteString("Campaign ID:\n")
	content.WriteString(c.ID.String()[:8] + "...\n\n")

	content.WriteString("Setting:\n")
	content.WriteString(c.Setting + "\n\n")

	content.WriteString("Scene:\n")
	content.WriteString(prompts.SceneHeading(c.World.Scene.ID) + "\n")
	content.WriteString(fmt.Sprintf("%d beats remaining\n\n", c.World.Scene.BeatsRemaining))

	content.WriteString(fmt.Sprintf("Turn %d\n\n", c.TurnNumber))

	content.WriteString("Objectives:\n")
	if len(c.World.ActiveObjectives) == 0 {
		content.WriteString("None\n")
	}
	for _, obj := range c.World.ActiveObjectives {
		if obj.Status == state.ObjectiveCompleted {
			content.WriteString("✓ " + doneStyle.Render(obj.Description) + "\n")
		} else {
			content.WriteString("• " + obj.Description + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /objectives: Objectives\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel from campaign history for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("STORYTELLER") + "\n\n")
	content.WriteString("Type your actions below to play out the campaign.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.campaign != nil {
		for _, msg := range m.campaign.ChatHistory {
			switch msg.Role {
			case chat.ChatRoleAgent, chat.ChatRoleSystem:
				content.WriteString(formatNarration(msg.Content, chatWidth) + "\n\n")
			case chat.ChatRoleUser:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
			}
		}
	}

	if m.loading {
		content.WriteString(m.renderSpinner())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatNarration(text string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(text, max(width-len(prefix), 20))
	return narratorStyle.Render(prefix) + wrapped
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showSettingModal {
		return m.loadSettings()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showSettingModal {
		return m.updateSettingModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		if m.campaign != nil {
			m.metaViewport.SetContent(writeMetadata(m.campaign))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.spinnerTick = 0

			m.campaign.ChatHistory = append(m.campaign.ChatHistory, chat.ChatMessage{
				Role:    chat.ChatRoleUser,
				Content: input,
			})
			m.writeChatContent()

			return m, tea.Batch(m.sendTurn(input), spinnerTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.campaign.ChatHistory = append(m.campaign.ChatHistory, chat.ChatMessage{
				Role:    chat.ChatRoleAgent,
				Content: msg.response.Narration,
			})
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshCampaign()

	case campaignMsg:
		if msg.err == nil && msg.campaign != nil {
			m.campaign = msg.campaign
			m.metaViewport.SetContent(writeMetadata(m.campaign))
		}

	case spinnerTickMsg:
		if m.loading {
			m.spinnerTick++
			m.writeChatContent()
			return m, spinnerTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /objectives - Show campaign objectives
• Ctrl+C - Quit

How to play:
• Type your actions and press Enter
• The narrator responds and the campaign advances one turn
• Scenes run a few beats each before the story moves on
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/objectives":
		var text strings.Builder
		text.WriteString(titleStyle.Render("Objectives:") + "\n")
		if m.campaign == nil || len(m.campaign.World.ActiveObjectives) == 0 {
			text.WriteString("None yet.\n")
		} else {
			for _, obj := range m.campaign.World.ActiveObjectives {
				marker := "[ ]"
				if obj.Status == state.ObjectiveCompleted {
					marker = "[x]"
				}
				text.WriteString(fmt.Sprintf("%s %s\n", marker, obj.Description))
				for _, cond := range obj.SuccessConditions {
					text.WriteString("    - " + cond + "\n")
				}
			}
		}
		text.WriteString("\n")

		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + text.String())
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendTurn(message string) tea.Cmd {
	return func() tea.Msg {
		resp, err := postTurn(m.client, m.config.APIBaseURL, m.campaign.ID, message)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshCampaign() tea.Cmd {
	return func() tea.Msg {
		c, err := getCampaign(m.client, m.config.APIBaseURL, m.campaign.ID)
		return campaignMsg{c, err}
	}
}

func (m ConsoleUI) loadSettings() tea.Cmd {
	return func() tea.Msg {
		names, settingMap, err := listSettings(m.client, m.config.APIBaseURL)
		return settingsLoadedMsg{names, settingMap, err}
	}
}

func (m ConsoleUI) createCampaignFromSetting(settingFile string) tea.Cmd {
	return func() tea.Msg {
		c, err := createCampaign(m.client, m.config.APIBaseURL, settingFile)
		return campaignCreatedMsg{c, err}
	}
}

func (m ConsoleUI) updateSettingModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case settingsLoadedMsg:
		m.loadingSettings = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.settings = msg.settings
			m.settingMap = msg.settingMap
		}

	case campaignCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.campaign = msg.campaign
			m.showSettingModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.campaign))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingSettings || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedSetting > 0 {
				m.selectedSetting--
			}
		case tea.KeyDown:
			if m.selectedSetting < len(m.settings)-1 {
				m.selectedSetting++
			}
		case tea.KeyEnter:
			if len(m.settings) > 0 {
				name := m.settings[m.selectedSetting]
				m.loading = true
				return m, m.createCampaignFromSetting(m.settingMap[name])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showSettingModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Campaign?"))
	content.WriteString("\n\n")
	content.WriteString("Your campaign is saved; you can pick it up later.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSettingModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingSettings {
		content.WriteString(modalTitleStyle.Render("Loading Settings..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching available settings..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load settings: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Creating Campaign..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the stage..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Setting"))
		content.WriteString("\n\n")

		for i, name := range m.settings {
			if i == m.selectedSetting {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showSettingModal {
		return m.renderSettingModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

func (m ConsoleUI) renderSpinner() string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := frames[m.spinnerTick%len(frames)]
	return loadingStyle.Render(frame + " The narrator considers...")
}

func spinnerTick() tea.Cmd {
	return tea.Tick(time.Millisecond*120, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
