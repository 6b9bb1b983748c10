package core

// Vendor REST endpoint paths, relative to the configured REST base URL.
const (
	EndpointCreateUser       = "api/epic/2014/Security/PersonnelManagement/CreateUser"
	EndpointViewUser         = "api/epic/2014/Security/PersonnelManagement/ViewUser"
	EndpointUpdateUser       = "api/epic/2014/Security/PersonnelManagement/UpdateUser/Personnel/User"
	EndpointSetUserPassword  = "api/epic/2012/Security/PersonnelManagement/SetUserPassword/Personnel/User/EpicPassword"
	EndpointDeleteUser       = "api/epic/2012/Security/PersonnelManagement/DeleteUser/Personnel/User/Delete"
	EndpointActivateUser     = "api/epic/2012/Security/PersonnelManagement/ActivateUser/Personnel/User/Activate"
	EndpointDeactivateUser   = "api/epic/2012/Security/PersonnelManagement/InactivateUser/Personnel/User/Inactivate"
	EndpointViewUserGroups   = "api/epic/2016/Security/PersonnelManagement/ViewUserGroups/Personnel/User/Groups/View"
	EndpointUpdateUserGroups = "api/epic/2016/Security/PersonnelManagement/UpdateUserGroups/Personnel/User/Groups/Update"
	EndpointToken            = "oauth2/token"
	EndpointSOAPListener     = "httplistener.ashx"
)

// Attribute and field names shared between the mapper, the orchestrator,
// and the query engine.
const (
	AttrUserID         = "UserID"
	AttrUserInternalID = "UserInternalID"
	AttrUserIDType     = "UserIDType"
	AttrUserIDs        = "UserIDs"
	AttrNewPassword    = "NewPassword"
	AttrUserGroups     = "UserGroups"
	AttrIsActive       = "IsActive"

	AttrBlockStatus                = "BlockStatus"
	AttrUserComplexName            = "UserComplexName"
	AttrDefaultLoginDepartmentID   = "DefaultLoginDepartmentID"
	AttrPrimaryManager             = "PrimaryManager"
	AttrDefaultTemplateID          = "DefaultTemplateID"
	AttrAppliedTemplateID          = "AppliedTemplateID"
	AttrAvailableLinkableTemplates = "AvailableLinkableTemplates"
	AttrLinkedTemplatesConfig      = "LinkedTemplatesConfig"
	AttrUserSubtemplateIDs         = "UserSubtemplateIDs"
	AttrUsersManagers              = "UsersManagers"
	AttrInBasketClassifications    = "InBasketClassifications"
	AttrCategoryReportGrouper6     = "CategoryReportGrouper6"
	AttrProvider                   = "Provider"
	AttrLinkedProviderID           = "LinkedProviderID"
	AttrContactDate                = "ContactDate"

	FieldIdentifier  = "Identifier"
	FieldIdentifiers = "Identifiers"
	FieldIndex       = "Index"
	FieldID          = "ID"
	FieldType        = "Type"
	FieldItems       = "items"
	FieldItemName    = "name"
	FieldItemMode    = "Mode"
	ModeReplace      = "Replace"
)

// Query surface constants.
const (
	RecordTypeUser = "EMP"

	// RecordKeyExternalID is the row key carried by query records; it is
	// the identifier used for the follow-up detail read during listing.
	RecordKeyExternalID = "ExternalID"

	// InvalidRecordTypeMarker appears in detail responses for rows the
	// query surface returned that are not users; such rows are skipped.
	InvalidRecordTypeMarker = "INVALID-RECORD-TYPE"

	// DefaultSearchString is sent when a listing carries no filter.
	DefaultSearchString = "HCTI"

	DefaultMaxRecordsPerFetch = 50
)

// ResponseKeyUsers and ResponseKeySearchContext shape the listing result
// body.
const (
	ResponseKeyUsers         = "Users"
	ResponseKeySearchContext = "SearchStateContext"
	ResponseKeyMessage       = "Message"
)

// DateLayout is the vendor's date rendering for date-stamped attributes.
const DateLayout = "01/02/2006"
