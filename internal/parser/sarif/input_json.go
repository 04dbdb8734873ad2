package sarif

import "encoding/json"

// LogJSON is the root of a SARIF log. Only the parts needed to place
// diagnostics are decoded.
type LogJSON struct {
	Version string    `json:"version"`
	Schema  string    `json:"$schema"`
	Runs    []RunJSON `json:"runs"`
}

type RunJSON struct {
	Tool               ToolJSON                           `json:"tool"`
	Results            []ResultJSON                       `json:"results"`
	OriginalURIBaseIDs map[string]ArtifactLocationJSON    `json:"originalUriBaseIds,omitempty"`
	LegacyRules        map[string]ReportingDescriptorJSON `json:"rules,omitempty"`
}

type ToolJSON struct {
	Driver     ComponentJSON   `json:"driver"`
	Extensions []ComponentJSON `json:"extensions,omitempty"`
}

type ComponentJSON struct {
	Name    string                    `json:"name"`
	Version string                    `json:"version,omitempty"`
	Rules   []ReportingDescriptorJSON `json:"rules,omitempty"`
}

type ReportingDescriptorJSON struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription *MessageJSON `json:"shortDescription,omitempty"`
	FullDescription  *MessageJSON `json:"fullDescription,omitempty"`
}

type ResultJSON struct {
	RuleID       string            `json:"ruleId"`
	Rule         *RuleRefJSON      `json:"rule,omitempty"`
	Level        string            `json:"level,omitempty"`
	Message      MessageJSON       `json:"message"`
	Locations    []LocationJSON    `json:"locations,omitempty"`
	Suppressions []SuppressionJSON `json:"suppressions,omitempty"`
}

type RuleRefJSON struct {
	ID string `json:"id"`
}

type MessageJSON struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts both the 2.1.0 message object and the plain string
// used by 1.0 logs.
func (m *MessageJSON) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Text = s
		return nil
	}
	type plain MessageJSON
	return json.Unmarshal(data, (*plain)(m))
}

type LocationJSON struct {
	PhysicalLocation *PhysicalLocationJSON `json:"physicalLocation,omitempty"`
	// ResultFile is the 1.0 spelling of the physical location.
	ResultFile *PhysicalLocationJSON `json:"resultFile,omitempty"`
}

type PhysicalLocationJSON struct {
	ArtifactLocation ArtifactLocationJSON `json:"artifactLocation"`
	URI              string               `json:"uri,omitempty"`
	Region           *RegionJSON          `json:"region,omitempty"`
}

type ArtifactLocationJSON struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type RegionJSON struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

type SuppressionJSON struct {
	Kind   string `json:"kind"`
	Status string `json:"status,omitempty"`
}
