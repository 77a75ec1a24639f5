package domain

// Representative is the MP returned for a postcode.
type Representative struct {
	Name         string `json:"name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency"`
	PersonID     string `json:"personId,omitempty"`
}
