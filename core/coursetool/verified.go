package coursetool

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core/enrollment"
)

const VerifiedUpgradeID = "edx.tool.verified_upgrade"

// VerifiedUpgradeTool invites learners on an upsell track to upgrade to the verified track
// before their upgrade deadline.
type VerifiedUpgradeTool struct {
	deps    Deps
	baseURL string
}

var _ Tool = (*VerifiedUpgradeTool)(nil)

func NewVerifiedUpgradeTool(deps Deps, frontendBaseURL string) *VerifiedUpgradeTool {
	return &VerifiedUpgradeTool{deps: deps, baseURL: strings.TrimRight(frontendBaseURL, "/")}
}

func (t *VerifiedUpgradeTool) AnalyticsID() string { return VerifiedUpgradeID }
func (t *VerifiedUpgradeTool) Title() string       { return "Upgrade to Verified" }
func (t *VerifiedUpgradeTool) IconClasses() string { return "fa fa-certificate" }

func (t *VerifiedUpgradeTool) URL(courseID string) string {
	return t.baseURL + "/courses/" + url.PathEscape(courseID) + "/upgrade"
}

// IsEnabled reports whether the learner can still upgrade. Both the verified mode and the learner's
// dynamic deadline must be in the future; courses without dynamic deadlines never show the tool.
func (t *VerifiedUpgradeTool) IsEnabled(ctx context.Context, req Request, courseID string) (bool, error) {
	lk, err := t.deps.load(ctx, req, courseID)
	if err != nil || !lk.canUpgrade() {
		return false, err
	}

	modeDeadline, err := t.deps.upgradeDeadline(ctx, courseID)
	if err != nil || !isFuture(modeDeadline, req.Now) {
		return false, err
	}

	enabled, err := t.deps.Deadlines.IsEnabled(ctx, courseID)
	if err != nil {
		return false, errors.Wrap(err, "reading dynamic deadline config")
	}
	return isFuture(enrollment.DynamicDeadline(*lk.enrollment, lk.course, enabled), req.Now), nil
}
