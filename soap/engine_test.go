package soap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/clearskye/epic-connector/core"
)

const searchResponseXML = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <GetRecordsResponse xmlns="urn:epicsystems-com:Core.2008-04.Services">
      <Records>
        <ResultRecord>
          <ExternalID> EMP100 </ExternalID>
          <Name>Doe, John</Name>
          <AdditionalFields>
            <Field>
              <Title>Department</Title>
              <Value>Cardiology</Value>
            </Field>
            <Field>
              <Title>Status</Title>
              <Value>Active</Value>
            </Field>
          </AdditionalFields>
        </ResultRecord>
        <ResultRecord>
          <ExternalID>EMP101</ExternalID>
          <Name>Roe, Jane</Name>
        </ResultRecord>
      </Records>
      <SearchStateContext>
        <Identifier>ctx-1</Identifier>
        <ResumeInfo>resume-2</ResumeInfo>
        <CriteriaHash>hash-3</CriteriaHash>
      </SearchStateContext>
    </GetRecordsResponse>
  </soap:Body>
</soap:Envelope>`

const authFaultXML = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>fns:FailedAuthentication</faultcode>
      <faultstring>Authentication of the security token failed</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

const serverFaultXML = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Search criteria invalid</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

type listenerStub struct {
	response string
	requests []*http.Request
	bodies   []string
}

func (s *listenerStub) Do(req *http.Request) (*http.Response, error) {
	raw, _ := io.ReadAll(req.Body)
	s.requests = append(s.requests, req)
	s.bodies = append(s.bodies, string(raw))
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.response))),
		Header:     http.Header{},
	}, nil
}

func newTestEngine(t *testing.T, stub *listenerStub, mutate func(*EngineConfig)) *Engine {
	t.Helper()
	cfg := EngineConfig{
		ListenerURL: "https://epic.example.com/Interconnect-PRD/httplistener.ashx",
		Username:    "svc-account",
		Password:    "s3cret",
		ClientID:    "epic-client-42",
		Client:      stub,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestSearch_ParsesRecordsAndContext(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, nil)

	result, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}

	first := result.Records[0]
	if first[core.RecordKeyExternalID] != "EMP100" {
		t.Fatalf("expected trimmed ExternalID, got %q", first[core.RecordKeyExternalID])
	}
	if first["Department"] != "Cardiology" || first["Status"] != "Active" {
		t.Fatalf("expected flattened additional fields, got %v", first)
	}

	if result.NextContext == nil {
		t.Fatalf("expected next context")
	}
	if result.NextContext.Identifier != "ctx-1" ||
		result.NextContext.ResumeInfo != "resume-2" ||
		result.NextContext.CriteriaHash != "hash-3" {
		t.Fatalf("unexpected next context %+v", result.NextContext)
	}
}

func TestSearch_EnvelopeCarriesSecurityToken(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, func(cfg *EngineConfig) {
		cfg.Password = "p&amp;ss"
	})

	if _, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser}); err != nil {
		t.Fatalf("search: %v", err)
	}

	body := stub.bodies[0]
	if !strings.Contains(body, "<wsse:Username>emp:svc-account</wsse:Username>") {
		t.Fatalf("expected emp-prefixed username, got %s", body)
	}
	if !strings.Contains(body, "iQNWtmoUlkGIUDj2x2YY7g==") {
		t.Fatalf("expected fixed nonce in envelope")
	}
	if !strings.Contains(body, `wsu:Id="UsernameToken-A2D1F6D49E5DC5B9D915224298759042"`) {
		t.Fatalf("expected fixed username token id")
	}
	// The configured "&amp;" stands for a literal ampersand; the encoder
	// re-escapes it exactly once.
	if !strings.Contains(body, ">p&amp;ss</wsse:Password>") {
		t.Fatalf("expected unescaped-then-encoded password, got %s", body)
	}
}

func TestSearch_CriteriaDefaults(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, nil)

	if _, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser}); err != nil {
		t.Fatalf("search: %v", err)
	}

	body := stub.bodies[0]
	for _, want := range []string{
		"<INI>EMP</INI>",
		"<SearchString>HCTI</SearchString>",
		"<RecordState>Active</RecordState>",
		"<SkipEnRol>false</SkipEnRol>",
		"<SoundsLikeMode>UseIfNeeded</SoundsLikeMode>",
		"<MaximumRecordsPerFetch>50</MaximumRecordsPerFetch>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in envelope, got %s", want, body)
		}
	}
	if strings.Contains(body, "<SearchContext>") {
		t.Fatalf("expected no search context on first page")
	}
}

func TestSearch_PageSizePrecedence(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, func(cfg *EngineConfig) {
		cfg.MaxRecordsPerFetch = 25
	})

	if _, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser, PageSize: 10}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(stub.bodies[0], "<MaximumRecordsPerFetch>10</MaximumRecordsPerFetch>") {
		t.Fatalf("expected query page size to win, got %s", stub.bodies[0])
	}

	if _, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(stub.bodies[1], "<MaximumRecordsPerFetch>25</MaximumRecordsPerFetch>") {
		t.Fatalf("expected configured page size fallback, got %s", stub.bodies[1])
	}
}

func TestSearch_EchoesResumeContext(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, nil)

	query := core.SearchQuery{
		RecordType: core.RecordTypeUser,
		Filter:     "Doe",
		Context: &core.SearchStateContext{
			Identifier:   "ctx-1",
			ResumeInfo:   "resume-2",
			CriteriaHash: "hash-3",
		},
	}
	if _, err := engine.Search(context.Background(), query); err != nil {
		t.Fatalf("search: %v", err)
	}

	body := stub.bodies[0]
	if !strings.Contains(body, "<SearchString>Doe</SearchString>") {
		t.Fatalf("expected filter in search string, got %s", body)
	}
	for _, want := range []string{
		"<Identifier>ctx-1</Identifier>",
		"<ResumeInfo>resume-2</ResumeInfo>",
		"<CriteriaHash>hash-3</CriteriaHash>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s echoed, got %s", want, body)
		}
	}
}

func TestSearch_SetsListenerHeaders(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, nil)

	if _, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser}); err != nil {
		t.Fatalf("search: %v", err)
	}
	req := stub.requests[0]
	if got := req.Header.Get("Epic-Client-ID"); got != "epic-client-42" {
		t.Fatalf("expected client id header, got %q", got)
	}
	if got := req.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/xml") {
		t.Fatalf("expected text/xml content type, got %q", got)
	}
}

func TestSearch_AuthenticationFaultIsCredentialError(t *testing.T) {
	stub := &listenerStub{response: authFaultXML}
	engine := newTestEngine(t, stub, nil)

	_, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser})
	if err == nil {
		t.Fatalf("expected fault error")
	}
	if !core.IsCredentialError(err) {
		t.Fatalf("expected credential error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Authentication of the security token failed") {
		t.Fatalf("expected listener fault string in error, got %v", err)
	}
}

func TestSearch_OtherFaultIsVendorError(t *testing.T) {
	stub := &listenerStub{response: serverFaultXML}
	engine := newTestEngine(t, stub, nil)

	_, err := engine.Search(context.Background(), core.SearchQuery{RecordType: core.RecordTypeUser})
	if err == nil {
		t.Fatalf("expected fault error")
	}
	if core.IsCredentialError(err) {
		t.Fatalf("expected non-credential fault, got credential error")
	}
	if !strings.Contains(err.Error(), "Search criteria invalid") {
		t.Fatalf("expected fault string in error, got %v", err)
	}
}

func TestSearch_RequiresRecordType(t *testing.T) {
	stub := &listenerStub{response: searchResponseXML}
	engine := newTestEngine(t, stub, nil)

	if _, err := engine.Search(context.Background(), core.SearchQuery{}); err == nil {
		t.Fatalf("expected bad input error")
	}
	if len(stub.requests) != 0 {
		t.Fatalf("expected no listener call for bad input")
	}
}

func TestParseSearchResponse_NoRecords(t *testing.T) {
	empty := `<?xml version="1.0"?><Envelope><Body><GetRecordsResponse></GetRecordsResponse></Body></Envelope>`
	result, err := parseSearchResponse([]byte(empty))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(result.Records))
	}
	if result.NextContext != nil {
		t.Fatalf("expected nil next context, got %+v", result.NextContext)
	}
}
