package terminology

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// concept is the JSON shape exchanged on /snomed/search.
type concept struct {
	ID            code   `json:"id,omitempty"`
	ConceptID     code   `json:"conceptId"`
	Term          string `json:"term"`
	PreferredTerm string `json:"preferredTerm"`
}

// code accepts both JSON numbers and strings; SNOMED CT identifiers are
// emitted as numbers while local code systems use strings.
type code string

func (c *code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = code(n.String())
	return nil
}

func (c code) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(c), 10, 64); err == nil {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

func (c concept) candidate(terminology string) Candidate {
	label := c.PreferredTerm
	if label == "" {
		label = c.Term
	}
	return Candidate{
		Value:       string(c.ConceptID),
		Label:       label,
		Term:        c.Term,
		Star:        c.Term != "" && c.Term == c.PreferredTerm,
		Terminology: terminology,
	}
}

func fromCandidate(id int, c Candidate) concept {
	term := c.Term
	if term == "" {
		term = c.Label
	}
	return concept{
		ID:            code(strconv.Itoa(id)),
		ConceptID:     code(c.Value),
		Term:          term,
		PreferredTerm: c.Label,
	}
}
