package domain

import "strings"

// RolePrefix is the fixed prefix every catalog role name carries.
const RolePrefix = "ROLE_"

// RoleName identifies one entry of the fixed role catalog.
type RoleName string

// The fixed 12-entry role catalog. Names are uppercase with underscores and
// start with RolePrefix. Priority is 1-999, lower = higher precedence.
const (
	RoleSuperAdmin       RoleName = "ROLE_SUPER_ADMIN"
	RoleAdmin            RoleName = "ROLE_ADMIN"
	RoleAuditor          RoleName = "ROLE_AUDITOR"
	RoleSystemManager    RoleName = "ROLE_SYSTEM_MANAGER"
	RoleContentManager   RoleName = "ROLE_CONTENT_MANAGER"
	RoleBoardManager     RoleName = "ROLE_BOARD_MANAGER"
	RoleKnowledgeManager RoleName = "ROLE_KNOWLEDGE_MANAGER"
	RoleDeptManager      RoleName = "ROLE_DEPT_MANAGER"
	RoleEditor           RoleName = "ROLE_EDITOR"
	RoleContributor      RoleName = "ROLE_CONTRIBUTOR"
	RoleMember           RoleName = "ROLE_MEMBER"
	RoleViewer           RoleName = "ROLE_VIEWER"
)

// CatalogEntry describes one role of the fixed catalog.
type CatalogEntry struct {
	Name           RoleName
	DisplayName    string
	Description    string
	Priority       int
	SelfAssignable bool
	SystemRole     bool
}

// RoleCatalog is the fixed catalog ordered by ascending priority.
// The slice itself is the source of truth; the roles table is seeded from it.
var RoleCatalog = []CatalogEntry{
	{RoleSuperAdmin, "Super Administrator", "Full control over the portal, including system roles", 1, false, true},
	{RoleAdmin, "Administrator", "Portal administration: users, roles, global settings", 10, false, true},
	{RoleAuditor, "Auditor", "Read access to audit trails and security reports", 20, false, true},
	{RoleSystemManager, "System Manager", "Operational management of portal subsystems", 30, false, true},
	{RoleContentManager, "Content Manager", "Manages portal-wide content and categories", 40, false, false},
	{RoleBoardManager, "Board Manager", "Manages boards and moderates posts", 50, false, false},
	{RoleKnowledgeManager, "Knowledge Manager", "Curates the knowledge base", 60, false, false},
	{RoleDeptManager, "Department Manager", "Manages content for a single department", 70, false, false},
	{RoleEditor, "Editor", "Edits and publishes approved content", 100, false, false},
	{RoleContributor, "Contributor", "Writes posts and uploads documents", 200, true, false},
	{RoleMember, "Member", "Participates in boards and comments", 300, true, false},
	{RoleViewer, "Viewer", "Read-only access to published content", 900, true, false},
}

// DefaultRole returns the lowest-privilege catalog entry, assigned when a
// registrant requests no role.
func DefaultRole() CatalogEntry {
	return RoleCatalog[len(RoleCatalog)-1]
}

// NormalizeRoleName trims whitespace and upper-cases a requested role name so
// catalog membership does not depend on caller formatting.
func NormalizeRoleName(name string) RoleName {
	return RoleName(strings.ToUpper(strings.TrimSpace(name)))
}

// LookupRole returns the catalog entry for a raw role name, normalizing it
// first. The second return is false when the name is outside the catalog.
func LookupRole(name string) (CatalogEntry, bool) {
	normalized := NormalizeRoleName(name)
	for _, entry := range RoleCatalog {
		if entry.Name == normalized {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

// IsSelfAssignable reports whether a registrant may request the role without
// administrative approval. Unknown names are never self-assignable.
func IsSelfAssignable(name string) bool {
	entry, ok := LookupRole(name)
	return ok && entry.SelfAssignable
}
