package coursetool

import (
	"context"
	"net/url"
	"strings"
)

const FinancialAssistanceID = "edx.tool.financial_assistance"

// FinancialAssistanceTool links learners who have not upgraded yet to the financial assistance form.
type FinancialAssistanceTool struct {
	deps    Deps
	baseURL string
}

var _ Tool = (*FinancialAssistanceTool)(nil)

func NewFinancialAssistanceTool(deps Deps, frontendBaseURL string) *FinancialAssistanceTool {
	return &FinancialAssistanceTool{deps: deps, baseURL: strings.TrimRight(frontendBaseURL, "/")}
}

func (t *FinancialAssistanceTool) AnalyticsID() string { return FinancialAssistanceID }
func (t *FinancialAssistanceTool) Title() string       { return "Financial Assistance" }
func (t *FinancialAssistanceTool) IconClasses() string { return "fa fa-info" }

func (t *FinancialAssistanceTool) URL(courseID string) string {
	return t.baseURL + "/financial-assistance/apply?course_id=" + url.QueryEscape(courseID)
}

// IsEnabled reports whether the course offers financial assistance to the learner.
// The upgrade deadline is read from the verified mode on every call.
func (t *FinancialAssistanceTool) IsEnabled(ctx context.Context, req Request, courseID string) (bool, error) {
	lk, err := t.deps.load(ctx, req, courseID)
	if err != nil || lk == nil {
		return false, err
	}
	if !lk.course.EligibleForFinancialAid || lk.course.HasEnded(req.Now) {
		return false, nil
	}
	if !lk.canUpgrade() {
		return false, nil
	}

	deadline, err := t.deps.upgradeDeadline(ctx, courseID)
	if err != nil {
		return false, err
	}
	return isFuture(deadline, req.Now), nil
}
