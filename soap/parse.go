package soap

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/clearskye/epic-connector/core"
)

// failedAuthenticationFault is the fault code the vendor raises for bad
// WS-Security credentials.
const failedAuthenticationFault = "fns:FailedAuthentication"

// xmlNode is a generic element tree; the vendor's response schema is
// loose enough that walking by local name beats a rigid struct mapping.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *xmlNode) find(local string) *xmlNode {
	if n == nil {
		return nil
	}
	if n.XMLName.Local == local {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].find(local); found != nil {
			return found
		}
	}
	return nil
}

func (n *xmlNode) findAll(local string, into []*xmlNode) []*xmlNode {
	if n == nil {
		return into
	}
	if n.XMLName.Local == local {
		return append(into, n)
	}
	for i := range n.Children {
		into = n.Children[i].findAll(local, into)
	}
	return into
}

func (n *xmlNode) childText(local string) string {
	if n == nil {
		return ""
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return strings.TrimSpace(n.Children[i].Text)
		}
	}
	return ""
}

// parseSearchResponse maps the raw listener reply to records plus the
// next cursor. Faults are surfaced as errors: an authentication fault as
// a credential error, anything else as a vendor fault.
func parseSearchResponse(raw []byte) (core.SearchResult, error) {
	var root xmlNode
	if err := xml.Unmarshal(raw, &root); err != nil {
		return core.SearchResult{}, core.WrapTransportError(err, "soap: decode response envelope", nil)
	}

	if fault := root.find("Fault"); fault != nil {
		return core.SearchResult{}, faultError(fault)
	}

	response := root.find("GetRecordsResponse")
	if response == nil {
		return core.SearchResult{}, core.NewVendorFaultError("soap: response is missing GetRecordsResponse", nil)
	}

	var records []core.Record
	for _, recordNode := range response.findAll("ResultRecord", nil) {
		records = append(records, flattenRecord(recordNode))
	}

	result := core.SearchResult{Records: records}
	if contextNode := response.find("SearchStateContext"); contextNode != nil {
		next := core.SearchStateContext{
			Identifier:   contextNode.childText("Identifier"),
			ResumeInfo:   contextNode.childText("ResumeInfo"),
			CriteriaHash: contextNode.childText("CriteriaHash"),
		}
		if !next.IsZero() {
			result.NextContext = &next
		}
	}
	return result, nil
}

// flattenRecord turns one ResultRecord element into a flat map: plain
// children by element name, and AdditionalFields/Field pairs by their
// Title and Value children.
func flattenRecord(node *xmlNode) core.Record {
	record := core.Record{}
	for i := range node.Children {
		child := &node.Children[i]
		if child.XMLName.Local == "AdditionalFields" {
			for j := range child.Children {
				field := &child.Children[j]
				if field.XMLName.Local != "Field" {
					continue
				}
				title := field.childText("Title")
				if title == "" {
					continue
				}
				record[title] = field.childText("Value")
			}
			continue
		}
		record[child.XMLName.Local] = strings.TrimSpace(child.Text)
	}
	return record
}

func faultError(fault *xmlNode) error {
	faultCode := fault.childText("faultcode")
	faultString := fault.childText("faultstring")
	if strings.Contains(faultCode, failedAuthenticationFault) {
		message := faultString
		if message == "" {
			message = "soap: listener rejected credentials"
		}
		return core.NewCredentialError(message, map[string]any{
			"fault_code": faultCode,
		})
	}
	return core.NewVendorFaultError(fmt.Sprintf("soap: listener fault: %s", faultString), map[string]any{
		"fault_code": faultCode,
	})
}
