// Package mapping translates between the connector's flat canonical
// attributes and the vendor's reference-object encoding. The attribute
// vocabulary is closed: every supported attribute appears in one ordered
// rule table, and the table order is the query-parameter order on encode.
package mapping

import "github.com/clearskye/epic-connector/core"

// Class is the closed set of encoding behaviors an attribute can have.
type Class int

const (
	// ClassPassthrough stringifies the value into a query parameter.
	ClassPassthrough Class = iota

	// ClassInternalID renames the canonical user id to the vendor's
	// internal-id parameter.
	ClassInternalID

	// ClassBoolean parses the value into a bool before rendering.
	ClassBoolean

	// ClassDateStamped ignores the caller's value and renders the
	// current date; the vendor treats the field as "touched now".
	ClassDateStamped

	// ClassNamePart collects the value into the composite name object in
	// the body.
	ClassNamePart

	// ClassComplex copies an already-structured object into the body.
	ClassComplex

	// ClassReference wraps a scalar id as {ID, Type: External} in the
	// body.
	ClassReference

	// ClassTemplate expands a template id into the linked-templates
	// config object in the body.
	ClassTemplate

	// ClassIndexedReferenceList wraps each id as {Identifier: {ID,
	// Type}, Index: n} with 1-based positions, in the body.
	ClassIndexedReferenceList

	// ClassReferenceList wraps each id as {ID, Type} in the body.
	ClassReferenceList

	// ClassProvider wraps the id as a reference under the vendor's
	// linked-provider key in the body.
	ClassProvider

	// ClassStringList copies the value as a plain string list into the
	// body.
	ClassStringList
)

type rule struct {
	name  string
	class Class
}

// ruleTable is the closed attribute vocabulary. Encode walks it in order,
// so the slice order is the wire order of query parameters.
var ruleTable = []rule{
	{core.AttrUserID, ClassInternalID},

	{"Name", ClassPassthrough},
	{"SystemLoginID", ClassPassthrough},
	{"LDAPOverrideID", ClassPassthrough},
	{"UserAlias", ClassPassthrough},
	{"UserPhotoPath", ClassPassthrough},
	{"Sex", ClassPassthrough},
	{"StartDate", ClassPassthrough},
	{"EndDate", ClassPassthrough},
	{"Status", ClassPassthrough},
	{"Notes", ClassPassthrough},
	{"ContactComment", ClassPassthrough},
	{"ReportGrouper1", ClassPassthrough},
	{"ReportGrouper2", ClassPassthrough},
	{"ReportGrouper3", ClassPassthrough},
	{"AuditUserID", ClassPassthrough},
	{"AuditUserIDType", ClassPassthrough},
	{"AuditUserPassword", ClassPassthrough},
	{core.AttrNewPassword, ClassPassthrough},

	{core.AttrIsActive, ClassBoolean},
	{"IsBlocked", ClassBoolean},

	{core.AttrContactDate, ClassDateStamped},

	{"FirstName", ClassNamePart},
	{"MiddleName", ClassNamePart},
	{"LastName", ClassNamePart},
	{"GivenNameInitials", ClassNamePart},
	{"LastNamePrefix", ClassNamePart},
	{"SpouseLastName", ClassNamePart},
	{"SpousePrefix", ClassNamePart},
	{"SpouseLastNameFirst", ClassNamePart},
	{"Suffix", ClassNamePart},
	{"AcademicTitle", ClassNamePart},
	{"PrimaryTitle", ClassNamePart},

	{core.AttrBlockStatus, ClassComplex},
	{core.AttrDefaultLoginDepartmentID, ClassReference},
	{core.AttrPrimaryManager, ClassReference},
	{core.AttrDefaultTemplateID, ClassTemplate},
	{core.AttrUserSubtemplateIDs, ClassIndexedReferenceList},
	{core.AttrUsersManagers, ClassReferenceList},
	{core.AttrProvider, ClassProvider},
	{core.AttrInBasketClassifications, ClassStringList},
	{core.AttrCategoryReportGrouper6, ClassStringList},
	{core.AttrUserGroups, ClassStringList},
}

// Classify returns the class for a known attribute name; unknown names
// report false and are ignored by the codec.
func Classify(name string) (Class, bool) {
	for _, entry := range ruleTable {
		if entry.name == name {
			return entry.class, true
		}
	}
	return 0, false
}
