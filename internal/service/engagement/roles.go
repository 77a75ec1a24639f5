package engagement

import (
	"strings"

	"github.com/kapu/dmmymp-go/internal/domain"
)

var roleKeywords = []string{"minister", "spokesperson", "shadow", "whip"}

var focusRules = []topicRule{
	{"Environmental Policy", []string{"environmental", "environment"}},
	{"Education Policy", []string{"education"}},
	{"Justice Policy", []string{"justice"}},
	{"Health Policy", []string{"health"}},
	{"Defense Policy", []string{"defense", "defence"}},
	{"Transport Policy", []string{"transport"}},
}

const noneLabel = "None"

// DeriveCommitteesAndRoles summarises an MP's offices.
func DeriveCommitteesAndRoles(offices []domain.Office) domain.CommitteesAndRoles {
	var roles, committees []string
	for _, o := range offices {
		position := strings.ToLower(o.Position)
		dept := strings.ToLower(o.Dept)

		if containsAny(position, roleKeywords) && !strings.Contains(position, "committee") {
			roles = append(roles, o.Position)
		}
		if strings.Contains(dept, "committee") || strings.Contains(position, "committee") {
			if o.Dept != "" {
				committees = append(committees, o.Dept)
			} else {
				committees = append(committees, o.Position)
			}
		}
	}

	result := domain.CommitteesAndRoles{
		Roles:      joinOrNone(roles),
		Committees: joinOrNone(committees),
	}
	result.Focus = committeeFocus(result.Committees)
	return result
}

func committeeFocus(committees string) string {
	lower := strings.ToLower(committees)
	for _, rule := range focusRules {
		if containsAny(lower, rule.keywords) {
			return rule.label
		}
	}
	return generalTopic
}

func joinOrNone(items []string) string {
	joined := strings.Join(items, ", ")
	if joined == "" {
		return noneLabel
	}
	return joined
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
