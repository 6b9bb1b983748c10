package mapping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clearskye/epic-connector/core"
)

// Mapper encodes canonical attributes into vendor request payloads and
// decodes vendor responses back. The clock is injected because
// date-stamped attributes always render the current date.
type Mapper struct {
	Now func() time.Time
}

func NewMapper() *Mapper {
	return &Mapper{Now: func() time.Time { return time.Now().UTC() }}
}

func (m *Mapper) now() time.Time {
	if m == nil || m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now()
}

// Encode partitions canonical attributes into ordered query parameters
// and a JSON body, per the rule table. Group membership is orchestrated
// separately and skipped here; attributes outside the table are ignored.
func (m *Mapper) Encode(attrs map[string]any) core.RequestPayload {
	payload := core.RequestPayload{}
	nameParts := map[string]any{}

	for _, entry := range ruleTable {
		if entry.name == core.AttrUserGroups {
			continue
		}
		value, ok := attrs[entry.name]
		if !ok || value == nil {
			continue
		}

		switch entry.class {
		case ClassPassthrough:
			payload.SetParam(entry.name, stringify(value))
		case ClassInternalID:
			payload.SetParam(core.AttrUserInternalID, stringify(value))
		case ClassBoolean:
			payload.SetParam(entry.name, strconv.FormatBool(parseBool(value)))
		case ClassDateStamped:
			payload.SetParam(entry.name, m.now().Format(core.DateLayout))
		case ClassNamePart:
			nameParts[entry.name] = stringify(value)
		case ClassComplex:
			payload.SetBody(entry.name, value)
		case ClassReference:
			payload.SetBody(entry.name, reference(stringify(value)))
		case ClassTemplate:
			payload.SetBody(core.AttrLinkedTemplatesConfig, templateConfig(stringify(value)))
		case ClassIndexedReferenceList:
			payload.SetBody(entry.name, indexedReferenceList(toStringSlice(value)))
		case ClassReferenceList:
			payload.SetBody(entry.name, referenceList(toStringSlice(value)))
		case ClassProvider:
			payload.SetBody(core.AttrLinkedProviderID, reference(stringify(value)))
		case ClassStringList:
			payload.SetBody(entry.name, toStringSlice(value))
		}
	}

	if len(nameParts) > 0 {
		payload.SetBody(core.AttrUserComplexName, nameParts)
	}
	return payload
}

// Decode maps one vendor user response back to canonical attributes.
// A response without the user-id list is not a user record and decodes
// to nil.
func (m *Mapper) Decode(result map[string]any) map[string]any {
	userIDs := toMapSlice(result[core.AttrUserIDs])
	if userIDs == nil {
		return nil
	}

	uid := ""
	for _, entry := range userIDs {
		if strings.EqualFold(stringify(entry[core.FieldType]), core.ReferenceTypeExternal) {
			uid = stringify(entry[core.FieldID])
		}
	}

	out := map[string]any{}
	for _, entry := range ruleTable {
		switch entry.class {
		case ClassInternalID:
			if uid != "" {
				out[core.AttrUserID] = uid
			}
		case ClassComplex:
			if value, ok := result[entry.name]; ok && value != nil {
				out[entry.name] = value
			}
		case ClassTemplate:
			config := toMap(result[core.AttrLinkedTemplatesConfig])
			if id, ok := firstExternalID(toMapSlice(config[core.AttrDefaultTemplateID])); ok {
				out[entry.name] = id
			}
		case ClassIndexedReferenceList, ClassReferenceList:
			out[entry.name] = identifierIDs(toMapSlice(result[entry.name]))
		case ClassNamePart:
			nameParts := toMap(result[core.AttrUserComplexName])
			if value, ok := nameParts[entry.name]; ok && value != nil {
				out[entry.name] = stringify(value)
			}
		case ClassReference:
			if id, ok := firstExternalID(toMapSlice(result[entry.name])); ok {
				out[entry.name] = id
			}
		case ClassProvider:
			if id, ok := firstExternalID(toMapSlice(result[core.AttrLinkedProviderID])); ok {
				out[entry.name] = id
			}
		case ClassStringList:
			if value, ok := result[entry.name]; ok && value != nil {
				out[entry.name] = toStringSlice(value)
			}
		case ClassBoolean:
			if value, ok := result[entry.name]; ok && value != nil && stringify(value) != "" {
				out[entry.name] = parseBool(value)
			}
		default:
			if value, ok := result[entry.name]; ok && value != nil && stringify(value) != "" {
				out[entry.name] = value
			}
		}
	}
	return out
}

// IncludeUpdateItems appends the update manifest the vendor's update
// endpoint expects: one {name, Mode: Replace} item per field already in
// the body. Items are sorted by name so payloads are deterministic.
func IncludeUpdateItems(body map[string]any) map[string]any {
	if body == nil {
		body = map[string]any{}
	}
	names := make([]string, 0, len(body))
	for name := range body {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]map[string]any, 0, len(names))
	for _, name := range names {
		items = append(items, map[string]any{
			core.FieldItemName: name,
			core.FieldItemMode: core.ModeReplace,
		})
	}
	body[core.FieldItems] = items
	return body
}

func reference(id string) core.Reference {
	return core.Reference{ID: id, Type: core.ReferenceTypeExternal}
}

func templateConfig(id string) map[string]any {
	ref := reference(id)
	return map[string]any{
		core.AttrDefaultTemplateID:          ref,
		core.AttrAppliedTemplateID:          ref,
		core.AttrAvailableLinkableTemplates: []core.Reference{ref},
	}
}

func indexedReferenceList(ids []string) []map[string]any {
	entries := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, map[string]any{
			core.FieldIdentifier: reference(id),
			core.FieldIndex:      i + 1,
		})
	}
	return entries
}

func referenceList(ids []string) []core.Reference {
	refs := make([]core.Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, reference(id))
	}
	return refs
}

// identifierIDs extracts the external identifier from each entry's
// Identifiers list; entries without one are dropped, and the result is
// always a list so absent multivalues decode to empty, not missing.
func identifierIDs(entries []map[string]any) []string {
	ids := []string{}
	for _, entry := range entries {
		for _, identifier := range toMapSlice(entry[core.FieldIdentifiers]) {
			if stringify(identifier[core.FieldType]) == core.ReferenceTypeExternal {
				ids = append(ids, stringify(identifier[core.FieldID]))
				break
			}
		}
	}
	return ids
}

func firstExternalID(entries []map[string]any) (string, bool) {
	for _, entry := range entries {
		if stringify(entry[core.FieldType]) == core.ReferenceTypeExternal {
			return stringify(entry[core.FieldID]), true
		}
	}
	return "", false
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

// parseBool mirrors the vendor's lenient parsing: anything that is not
// "true" is false.
func parseBool(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(stringify(value)))
	if err != nil {
		return false
	}
	return parsed
}

func toStringSlice(value any) []string {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, entry := range typed {
			out = append(out, stringify(entry))
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return []string{}
		}
		return []string{typed}
	case nil:
		return []string{}
	default:
		return []string{stringify(typed)}
	}
}

func toMapSlice(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, entry := range typed {
			if m := toMap(entry); m != nil {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func toMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return nil
}
