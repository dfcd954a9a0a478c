package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley"
)

// renderer turns messages into styled terminal lines. Assistant bodies
// are rendered as markdown; everything else is printed verbatim.
type renderer struct {
	client     lipgloss.Style
	assistant  lipgloss.Style
	supervisor lipgloss.Style
	system     lipgloss.Style
	errStyle   lipgloss.Style
	muted      lipgloss.Style
	markdown   *glamour.TermRenderer
}

func newRenderer(t parley.Theme) *renderer {
	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		md = nil // fall back to plain text
	}
	return &renderer{
		client:     lipgloss.NewStyle().Foreground(ansiColor(t.ClientMsg)).Bold(true),
		assistant:  lipgloss.NewStyle().Foreground(ansiColor(t.Assistant)),
		supervisor: lipgloss.NewStyle().Foreground(ansiColor(t.Supervisor)).Bold(true),
		system:     lipgloss.NewStyle().Foreground(ansiColor(t.System)).Faint(true),
		errStyle:   lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		muted:      lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		markdown:   md,
	}
}

// message renders one conversation message.
func (r *renderer) message(msg parley.Message) string {
	stamp := r.muted.Render(msg.CreatedAt().Format("15:04:05"))
	switch m := msg.(type) {
	case parley.TextMessage:
		label := r.roleLabel(m.From)
		body := m.Body
		if m.From == parley.RoleAssistant {
			body = r.renderMarkdown(body)
			if m.Model != "" {
				label += " " + r.muted.Render("("+m.Model+")")
			}
		}
		return fmt.Sprintf("%s %s %s", stamp, label, body)
	case parley.Notice:
		return fmt.Sprintf("%s %s", stamp, r.system.Render("· "+m.Body))
	case parley.FileMessage:
		label := r.roleLabel(m.From)
		desc := r.muted.Render("[" + m.File.FileName + "]")
		if m.Body == "" {
			return fmt.Sprintf("%s %s %s", stamp, label, desc)
		}
		return fmt.Sprintf("%s %s %s %s", stamp, label, desc, m.Body)
	case parley.ErrorMessage:
		return fmt.Sprintf("%s %s %s", stamp, r.errStyle.Render("error:"), m.Body)
	default:
		return fmt.Sprintf("%s %v", stamp, msg)
	}
}

// status renders an out-of-band status line.
func (r *renderer) status(s string) string {
	return r.muted.Render("— " + s)
}

// errorLine renders a locally rejected action.
func (r *renderer) errorLine(err error) string {
	return r.errStyle.Render("! " + err.Error())
}

func (r *renderer) roleLabel(role parley.Role) string {
	switch role {
	case parley.RoleClient:
		return r.client.Render("you:")
	case parley.RoleAssistant:
		return r.assistant.Render("assistant:")
	case parley.RoleSupervisor:
		return r.supervisor.Render("supervisor:")
	default:
		return r.system.Render(string(role) + ":")
	}
}

func (r *renderer) renderMarkdown(body string) string {
	if r.markdown == nil {
		return body
	}
	out, err := r.markdown.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(out)
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
