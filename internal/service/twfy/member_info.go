package twfy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MemberInfo is the getMPInfo record. The API encodes per-policy figures as
// dynamically named keys (public_whip_dreammp{id}_distance), so the record is
// kept as raw fields and read through Field.
type MemberInfo struct {
	fields    map[string]json.RawMessage
	byMember  map[string]map[string]json.RawMessage
	hasByID   bool
	Financial FinancialPayload
}

// ParseMemberInfo decodes a getMPInfo body.
func ParseMemberInfo(body []byte) (*MemberInfo, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode getMPInfo: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode getMPInfo: empty payload")
	}

	info := &MemberInfo{fields: fields, byMember: map[string]map[string]json.RawMessage{}}

	if raw, ok := fields["by_member_id"]; ok {
		info.hasByID = true
		// a malformed block reads as "no member data", not an error
		_ = json.Unmarshal(raw, &info.byMember)
	}

	info.Financial = parseFinancialPayload(fields["person_regmem_enriched2024_en"])
	return info, nil
}

// NewMemberInfo builds a MemberInfo from already-decoded fields.
func NewMemberInfo(fields map[string]any) (*MemberInfo, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return ParseMemberInfo(body)
}

// HasByMemberID reports whether the record carried a by_member_id block.
func (m *MemberInfo) HasByMemberID() bool {
	return m.hasByID
}

// Get returns a top-level scalar field.
func (m *MemberInfo) Get(key string) (string, bool) {
	return rawString(m.fields[key])
}

// Field returns the scalar stored under prefix+id+suffix.
func (m *MemberInfo) Field(prefix, id, suffix string) (string, bool) {
	return m.Get(prefix + id + suffix)
}

// MemberField returns a scalar from the by_member_id entry for memberID.
func (m *MemberInfo) MemberField(memberID, key string) (string, bool) {
	entry, ok := m.byMember[memberID]
	if !ok {
		return "", false
	}
	return rawString(entry[key])
}

// MaidenSpeech returns the free-text maiden speech record.
func (m *MemberInfo) MaidenSpeech() string {
	s, _ := m.Get("maiden_speech")
	return s
}

// FinancialPayload is the register-of-interests record. The API sends it as
// a nested object or as a JSON-encoded string; both decode to Data here.
type FinancialPayload struct {
	Present bool
	Data    *EnrichedFinancial
	Err     error
}

// Usable reports whether the payload was present and decoded.
func (p FinancialPayload) Usable() bool {
	return p.Present && p.Err == nil && p.Data != nil
}

type EnrichedFinancial struct {
	Categories []FinancialCategory `json:"categories"`
}

type FinancialCategory struct {
	CategoryID flexString         `json:"category_id"`
	Summaries  []FinancialSummary `json:"summaries"`
}

type FinancialSummary struct {
	ComparableID string            `json:"comparable_id"`
	Details      []FinancialDetail `json:"details"`
}

type FinancialDetail struct {
	Slug  string     `json:"slug"`
	Value flexString `json:"value"`
}

// ID returns the category id.
func (c FinancialCategory) ID() string {
	return string(c.CategoryID)
}

// Detail returns the value for slug, if present.
func (s FinancialSummary) Detail(slug string) (string, bool) {
	for _, d := range s.Details {
		if d.Slug == slug {
			return string(d.Value), true
		}
	}
	return "", false
}

func parseFinancialPayload(raw json.RawMessage) FinancialPayload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return FinancialPayload{}
	}

	payload := FinancialPayload{Present: true}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			payload.Err = fmt.Errorf("decode financial string: %w", err)
			return payload
		}
		if encoded == "" {
			return FinancialPayload{}
		}
		raw = []byte(encoded)
	}

	var data EnrichedFinancial
	if err := json.Unmarshal(raw, &data); err != nil {
		payload.Err = fmt.Errorf("decode financial payload: %w", err)
		return payload
	}
	payload.Data = &data
	return payload
}
