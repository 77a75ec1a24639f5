package domain

import "time"

// Letter is the anonymized metadata kept for each sent letter. The letter
// body and the sender's contact details are never stored.
type Letter struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Postcode      string    `gorm:"size:16;not null;index" json:"postcode"`
	Issue         string    `gorm:"size:255;not null;index" json:"issue"`
	CustomIssue   *string   `gorm:"size:255" json:"customIssue"`
	ProblemShort  string    `gorm:"size:100;not null" json:"problemShort"`
	SolutionShort *string   `gorm:"size:100" json:"solutionShort"`
	Constituency  string    `gorm:"size:255;not null;index" json:"constituency"`
	SentAt        time.Time `gorm:"not null;index" json:"sentAt"`
}

func (Letter) TableName() string {
	return "letters"
}

// LetterSubmission is what the client posts after opening the mail client.
type LetterSubmission struct {
	Postcode     string `json:"postcode" binding:"required"`
	Issue        string `json:"issue" binding:"required"`
	CustomIssue  string `json:"customIssue"`
	Problem      string `json:"problem" binding:"required"`
	Solution     string `json:"solution"`
	Constituency string `json:"constituency" binding:"required"`
}

type IssueCount struct {
	Issue string `json:"issue"`
	Count int64  `json:"count"`
}

type ConstituencyCount struct {
	Constituency string `json:"constituency"`
	Count        int64  `json:"count"`
}

type PostcodeCount struct {
	Postcode string `json:"postcode"`
	Count    int64  `json:"count"`
}

// EngagementStats is the analytics dashboard payload.
type EngagementStats struct {
	TotalLetters   int64               `json:"totalLetters"`
	TopIssues      []IssueCount        `json:"topIssues"`
	ByConstituency []ConstituencyCount `json:"byConstituency"`
	TopPostcodes   []PostcodeCount     `json:"byPostcode"`
	RecentLetters  []Letter            `json:"recentLetters"`
}
