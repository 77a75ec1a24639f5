package twfy

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/kapu/dmmymp-go/internal/domain"
)

// flexString decodes JSON strings and numbers alike; the API is not
// consistent about quoting ids and codes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// booleans, objects: keep the literal
		*f = flexString(data)
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// MP is the getMP response.
type MP struct {
	FullName     string     `json:"full_name"`
	Party        string     `json:"party"`
	Constituency string     `json:"constituency"`
	PersonID     flexString `json:"person_id"`
	MemberID     flexString `json:"member_id"`
	Office       []office   `json:"office"`
}

type office struct {
	Position string `json:"position"`
	Dept     string `json:"dept"`
}

// Identity converts the response to the domain identity.
func (m *MP) Identity() domain.Identity {
	offices := make([]domain.Office, 0, len(m.Office))
	for _, o := range m.Office {
		offices = append(offices, domain.Office{Position: o.Position, Dept: o.Dept})
	}
	return domain.Identity{
		FullName: m.FullName,
		Party:    m.Party,
		PersonID: string(m.PersonID),
		MemberID: string(m.MemberID),
		Offices:  offices,
	}
}

type dreamMP struct {
	ID          flexString `json:"id"`
	Description string     `json:"description"`
}

type hansardPage struct {
	Rows []hansardRow `json:"rows"`
}

type hansardRow struct {
	Body    string     `json:"body"`
	Major   flexString `json:"major"`
	HType   flexString `json:"htype"`
	Section string     `json:"section"`
	HDate   string     `json:"hdate"`
}

func (r hansardRow) toDomain() domain.ActivityEntry {
	return domain.ActivityEntry{
		Body:    r.Body,
		Major:   string(r.Major),
		HType:   string(r.HType),
		Section: r.Section,
		HDate:   r.HDate,
	}
}

// rawString reads a scalar JSON value as a string.
func rawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
