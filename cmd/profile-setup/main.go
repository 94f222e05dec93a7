package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultBaseURL = "http://localhost:5000"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepEnteringBaseURL step = iota
	stepEnteringToken
	stepSyncing
	stepEnteringCity
	stepEnteringState
	stepEnteringBudget
	stepUpdating
	stepComplete
)

type model struct {
	step         step
	baseURL      string
	token        string
	city         string
	state        string
	profile      *profileSummary
	currentInput string
	message      string
	quitting     bool
}

type syncSuccessMsg struct{ profile *profileSummary }
type updateSuccessMsg struct{ profile *profileSummary }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel() model {
	return model{step: stepEnteringBaseURL}
}

func (m model) Init() tea.Cmd {
	return nil
}

func syncProfile(client *apiClient) tea.Cmd {
	return func() tea.Msg {
		profile, err := client.sync()
		if err != nil {
			return errMsg{err}
		}
		return syncSuccessMsg{profile}
	}
}

func updateProfile(client *apiClient, u locationUpdate) tea.Cmd {
	return func() tea.Msg {
		profile, err := client.updateLocation(u)
		if err != nil {
			return errMsg{err}
		}
		return updateSuccessMsg{profile}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyBackspace:
			_, size := utf8.DecodeLastRuneInString(m.currentInput)
			m.currentInput = m.currentInput[:len(m.currentInput)-size]

		case tea.KeyEnter:
			return m.submit()

		case tea.KeyRunes, tea.KeySpace:
			if m.acceptsInput() {
				m.currentInput += msg.String()
			}
		}

	case syncSuccessMsg:
		m.profile = msg.profile
		m.step = stepEnteringCity
		m.message = successStyle.Render("✓ Signed in as " + msg.profile.Email)

	case updateSuccessMsg:
		m.profile = msg.profile
		m.step = stepComplete
		m.message = successStyle.Render("✓ Profile updated!")

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		switch m.step {
		case stepSyncing:
			m.step = stepEnteringToken
		case stepUpdating:
			m.step = stepEnteringCity
		}
	}

	return m, nil
}

func (m model) acceptsInput() bool {
	switch m.step {
	case stepEnteringBaseURL, stepEnteringToken, stepEnteringCity, stepEnteringState, stepEnteringBudget:
		return true
	}
	return false
}

func (m model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.currentInput)

	switch m.step {
	case stepEnteringBaseURL:
		m.baseURL = input
		if m.baseURL == "" {
			m.baseURL = defaultBaseURL
		}
		m.currentInput = ""
		m.step = stepEnteringToken

	case stepEnteringToken:
		if input != "" {
			m.token = input
			m.currentInput = ""
			m.step = stepSyncing
			m.message = "Syncing profile..."
			return m, syncProfile(newAPIClient(m.baseURL, m.token))
		}

	case stepEnteringCity:
		if input != "" {
			m.city = input
			m.currentInput = ""
			m.step = stepEnteringState
		}

	case stepEnteringState:
		if input != "" {
			m.state = input
			m.currentInput = ""
			m.step = stepEnteringBudget
		}

	case stepEnteringBudget:
		budget, err := strconv.ParseFloat(input, 64)
		if err != nil || budget < 0 {
			m.message = errorStyle.Render("✗ Budget must be a positive number")
			return m, nil
		}
		m.currentInput = ""
		m.step = stepUpdating
		m.message = "Saving profile..."
		return m, updateProfile(newAPIClient(m.baseURL, m.token), locationUpdate{
			City:   m.city,
			State:  m.state,
			Budget: budget,
		})

	case stepComplete:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("⚡ WattWise Profile Setup\n\n"))

	if m.message != "" && m.step != stepSyncing && m.step != stepUpdating {
		s.WriteString(m.message + "\n\n")
	}

	switch m.step {
	case stepEnteringBaseURL:
		s.WriteString(promptStyle.Render(fmt.Sprintf("API base URL (empty for %s):\n", defaultBaseURL)))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringToken:
		s.WriteString(promptStyle.Render("Paste your identity token:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", utf8.RuneCountInString(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepSyncing, stepUpdating:
		s.WriteString(m.message + "\n")

	case stepEnteringCity:
		s.WriteString(renderProfile(m.profile))
		s.WriteString(promptStyle.Render("\nEnter your city:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringState:
		s.WriteString(promptStyle.Render("Enter your state:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringBudget:
		s.WriteString(promptStyle.Render("Monthly electricity budget:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepComplete:
		s.WriteString(renderProfile(m.profile))
		s.WriteString("\nPress Enter to exit\n")
	}

	s.WriteString("\n(Esc to quit)\n")
	return s.String()
}

func renderProfile(p *profileSummary) string {
	if p == nil {
		return ""
	}

	value := func(v *string) string {
		if v == nil || *v == "" {
			return "-"
		}
		return *v
	}

	var s strings.Builder
	s.WriteString(labelStyle.Render("Name:    ") + value(p.DisplayName) + "\n")
	s.WriteString(labelStyle.Render("Email:   ") + p.Email + "\n")
	s.WriteString(labelStyle.Render("City:    ") + value(p.Address.City) + "\n")
	s.WriteString(labelStyle.Render("State:   ") + value(p.Address.State) + "\n")
	s.WriteString(labelStyle.Render("Budget:  ") + fmt.Sprintf("%.2f %s", p.MonthlyBudget, p.Currency) + "\n")
	return s.String()
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
