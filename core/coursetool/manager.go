package coursetool

import (
	"context"

	"github.com/pkg/errors"
)

// Manager holds the course tools in display order.
type Manager struct {
	tools []Tool
}

func NewManager(tools ...Tool) *Manager {
	return &Manager{tools: tools}
}

// NewDefaultManager returns a Manager with the verified upgrade and financial assistance tools.
func NewDefaultManager(deps Deps, frontendBaseURL string) *Manager {
	return NewManager(
		NewVerifiedUpgradeTool(deps, frontendBaseURL),
		NewFinancialAssistanceTool(deps, frontendBaseURL),
	)
}

func (m *Manager) Tools() []Tool {
	tools := make([]Tool, len(m.tools))
	copy(tools, m.tools)
	return tools
}

func (m *Manager) Tool(id string) (Tool, error) {
	for _, tool := range m.tools {
		if tool.AnalyticsID() == id {
			return tool, nil
		}
	}
	return nil, ErrUnknownTool
}

// EnabledTools returns the tools enabled for the request, in display order.
func (m *Manager) EnabledTools(ctx context.Context, req Request, courseID string) ([]Tool, error) {
	enabled := make([]Tool, 0, len(m.tools))
	for _, tool := range m.tools {
		ok, err := tool.IsEnabled(ctx, req, courseID)
		if err != nil {
			return nil, errors.Wrap(err, tool.AnalyticsID())
		}
		if ok {
			enabled = append(enabled, tool)
		}
	}
	return enabled, nil
}
