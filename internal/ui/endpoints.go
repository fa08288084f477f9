package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/framecast-dev/framecast/internal/discovery"
)

// RenderEndpointList renders discovered receivers as a bordered listing.
// An empty list renders a muted placeholder instead of an empty box.
func RenderEndpointList(endpoints []*discovery.Endpoint) string {
	width := GetTerminalWidth()

	if len(endpoints) == 0 {
		return EndpointDetailStyle.Render("  No receivers found on the local network.")
	}

	var lines []string
	for i, e := range endpoints {
		name := EndpointNameStyle.Render(e.Name)
		addr := EndpointDetailStyle.Render(e.Addr())
		lines = append(lines, fmt.Sprintf("  %s  %s", name, addr))

		if geometry := e.Geometry(); geometry != "" {
			lines = append(lines, EndpointDetailStyle.Render("    geometry "+geometry))
		}
		if version := e.GetMetadata("version"); version != "" {
			lines = append(lines, EndpointDetailStyle.Render("    version  "+version))
		}
		if i < len(endpoints)-1 {
			lines = append(lines, "")
		}
	}

	content := strings.Join(lines, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Padding(0, 1).
		Render(content)
}
