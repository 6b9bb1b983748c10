package soap

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/clearskye/epic-connector/core"
)

// Namespace and token constants the vendor's listener expects verbatim.
const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	accountURN     = "urn:epicsystems-com:ManagedCare.2010.Services.Account"
	getRecordsURN  = "urn:epicsystems-com:Core.2008-04.Services"
	xsiURN         = "http://www.w3.org/2001/XMLSchema-instance"

	wsseSecurityNS  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	wsuUtilityNS    = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	passwordTextURN = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
	nonceBase64URN  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"

	// usernameTokenID and fixedNonce are the vendor-expected constants;
	// the listener matches them rather than verifying freshness.
	usernameTokenID = "UsernameToken-A2D1F6D49E5DC5B9D915224298759042"
	fixedNonce      = "iQNWtmoUlkGIUDj2x2YY7g=="

	usernamePrefix = "emp:"
)

type requestEnvelope struct {
	XMLName  xml.Name      `xml:"soapenv:Envelope"`
	XMLNSEnv string        `xml:"xmlns:soapenv,attr"`
	XMLNSUrn string        `xml:"xmlns:urn,attr"`
	Header   requestHeader `xml:"soapenv:Header"`
	Body     requestBody   `xml:"soapenv:Body"`
}

type requestHeader struct {
	Security securityHeader `xml:"wsse:Security"`
}

type securityHeader struct {
	XMLNSWsse string        `xml:"xmlns:wsse,attr"`
	XMLNSWsu  string        `xml:"xmlns:wsu,attr"`
	Token     usernameToken `xml:"wsse:UsernameToken"`
}

type usernameToken struct {
	ID       string          `xml:"wsu:Id,attr"`
	Username string          `xml:"wsse:Username"`
	Password passwordElement `xml:"wsse:Password"`
	Nonce    nonceElement    `xml:"wsse:Nonce"`
}

type passwordElement struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type nonceElement struct {
	EncodingType string `xml:"EncodingType,attr"`
	Value        string `xml:",chardata"`
}

type requestBody struct {
	GetRecords getRecordsElement `xml:"GetRecords"`
}

type getRecordsElement struct {
	XMLNS          string                `xml:"xmlns,attr"`
	XSI            string                `xml:"xmlns:xsi,attr"`
	SearchCriteria searchCriteriaElement `xml:"SearchCriteria"`
	SearchContext  *searchContextElement `xml:"SearchContext,omitempty"`
	UserID         string                `xml:"UserID"`
}

type searchCriteriaElement struct {
	INI                    string `xml:"INI"`
	SearchString           string `xml:"SearchString"`
	RecordState            string `xml:"RecordState"`
	SkipEnRol              string `xml:"SkipEnRol"`
	SoundsLikeMode         string `xml:"SoundsLikeMode"`
	MaximumRecordsPerFetch string `xml:"MaximumRecordsPerFetch"`
}

type searchContextElement struct {
	Identifier   string `xml:"Identifier"`
	ResumeInfo   string `xml:"ResumeInfo"`
	CriteriaHash string `xml:"CriteriaHash"`
}

// buildEnvelope renders the GetRecords request. The password carries the
// vendor's escaping quirk: a literal "&amp;" in configuration stands for
// "&" and is unescaped before the XML encoder sees it.
func buildEnvelope(username, password string, query core.SearchQuery, pageSize int) ([]byte, error) {
	searchString := strings.TrimSpace(query.Filter)
	if searchString == "" {
		searchString = core.DefaultSearchString
	}

	envelope := requestEnvelope{
		XMLNSEnv: soapEnvelopeNS,
		XMLNSUrn: accountURN,
		Header: requestHeader{
			Security: securityHeader{
				XMLNSWsse: wsseSecurityNS,
				XMLNSWsu:  wsuUtilityNS,
				Token: usernameToken{
					ID:       usernameTokenID,
					Username: usernamePrefix + username,
					Password: passwordElement{
						Type:  passwordTextURN,
						Value: strings.ReplaceAll(password, "&amp;", "&"),
					},
					Nonce: nonceElement{
						EncodingType: nonceBase64URN,
						Value:        fixedNonce,
					},
				},
			},
		},
		Body: requestBody{
			GetRecords: getRecordsElement{
				XMLNS: getRecordsURN,
				XSI:   xsiURN,
				SearchCriteria: searchCriteriaElement{
					INI:                    query.RecordType,
					SearchString:           searchString,
					RecordState:            "Active",
					SkipEnRol:              "false",
					SoundsLikeMode:         "UseIfNeeded",
					MaximumRecordsPerFetch: strconv.Itoa(pageSize),
				},
				UserID: username,
			},
		},
	}

	if query.Context != nil && !query.Context.IsZero() {
		envelope.Body.GetRecords.SearchContext = &searchContextElement{
			Identifier:   query.Context.Identifier,
			ResumeInfo:   query.Context.ResumeInfo,
			CriteriaHash: query.Context.CriteriaHash,
		}
	}

	encoded, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("soap: encode request envelope: %w", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}
