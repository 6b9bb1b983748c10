package core

import "strings"

// Reference is the vendor's encoding for a record pointer: an external
// identifier plus the identifier type that scopes it.
type Reference struct {
	ID   string `json:"ID"`
	Type string `json:"Type"`
}

// ReferenceTypeExternal is the identifier type used for every reference
// the connector reads or writes.
const ReferenceTypeExternal = "External"

// SearchStateContext is the opaque pagination cursor returned by the
// vendor's query surface. It is echoed back verbatim to resume a search;
// the connector never inspects or fabricates its parts.
type SearchStateContext struct {
	Identifier   string `json:"Identifier"`
	ResumeInfo   string `json:"ResumeInfo"`
	CriteriaHash string `json:"CriteriaHash"`
}

func (c SearchStateContext) IsZero() bool {
	return strings.TrimSpace(c.Identifier) == "" &&
		strings.TrimSpace(c.ResumeInfo) == "" &&
		strings.TrimSpace(c.CriteriaHash) == ""
}

// QueryParam is a single name/value pair destined for a request query
// string. Parameters keep the order they were added in; the vendor's
// endpoints are order-sensitive in practice, so the slice is the contract.
type QueryParam struct {
	Name  string
	Value string
}

// RequestPayload is the output of attribute encoding: ordered query
// parameters plus a JSON body map.
type RequestPayload struct {
	Params []QueryParam
	Body   map[string]any
}

// SetParam appends a query parameter, replacing an existing value for the
// same name in place so ordering stays stable.
func (p *RequestPayload) SetParam(name, value string) {
	for i := range p.Params {
		if p.Params[i].Name == name {
			p.Params[i].Value = value
			return
		}
	}
	p.Params = append(p.Params, QueryParam{Name: name, Value: value})
}

// SetBody assigns a body field, allocating the map on first use.
func (p *RequestPayload) SetBody(name string, value any) {
	if p.Body == nil {
		p.Body = map[string]any{}
	}
	p.Body[name] = value
}

// Param returns the value for name and whether it is present.
func (p *RequestPayload) Param(name string) (string, bool) {
	for _, param := range p.Params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Record is one flat row returned by the vendor's query surface: trimmed
// element text keyed by element name, with nested additional fields
// already flattened.
type Record map[string]string

// SearchQuery describes one page of a record search.
type SearchQuery struct {
	RecordType string
	Filter     string
	PageSize   int
	Context    *SearchStateContext
}

// SearchResult is one page of records plus the cursor for the next page,
// nil when the vendor reports no further state.
type SearchResult struct {
	Records     []Record
	NextContext *SearchStateContext
}

// Response is the value-level outcome of a vendor REST call. Statuses of
// 300 and above are carried here, not as Go errors; errors are reserved
// for transport and credential faults.
type Response struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
}

// Failed reports whether the vendor answered with an error-range status.
func (r Response) Failed() bool {
	return r.StatusCode >= 300
}

// StepRecord captures one stage of a composite operation for the audit
// trail. Applied stages are never rolled back; the record list is how a
// caller learns which stages ran before a failure.
type StepRecord struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

const (
	StepStatusApplied = "applied"
	StepStatusFailed  = "failed"
	StepStatusSkipped = "skipped"
)

// OperationResult is the outcome contract for every connector operation:
// the final status, the response body, and the per-stage step records.
type OperationResult struct {
	StatusCode int
	Body       map[string]any
	Steps      []StepRecord
}

// Failed reports whether the operation ended on an error-range status.
func (r OperationResult) Failed() bool {
	return r.StatusCode >= 300
}
