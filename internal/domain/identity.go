package domain

// Identity is the resolved person behind a (name, constituency) pair.
type Identity struct {
	FullName string
	Party    string
	PersonID string
	MemberID string
	Offices  []Office
}

// Office is one position an MP holds or held.
type Office struct {
	Position string `json:"position"`
	Dept     string `json:"dept,omitempty"`
}

// ActivityEntry is one Hansard contribution.
type ActivityEntry struct {
	Body    string `json:"body"`
	Major   string `json:"major"`
	HType   string `json:"htype"`
	Section string `json:"section"`
	HDate   string `json:"hdate"`
}
