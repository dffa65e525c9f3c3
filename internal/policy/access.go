package policy

import "github.com/cleantrack-dev/cleantrack/internal/models"

// HasAccess is the read policy for a property: its owner, or an employee in
// its assigned set. Every other role is denied.
func HasAccess(property models.Property, userID uint, role models.Role) bool {
	switch role {
	case models.RoleOwner:
		return property.OwnerID == userID
	case models.RoleEmployee:
		return property.HasEmployee(userID)
	default:
		return false
	}
}

// CanManageProperty is the write policy: only the owner of record may rename,
// change status, reassign or delete a property. Another owner's property is
// reported as not found.
func CanManageProperty(property models.Property, userID uint, role models.Role) error {
	switch role {
	case models.RoleOwner:
		if property.OwnerID != userID {
			return NotFound("property")
		}
		return nil
	case models.RoleEmployee:
		return Forbidden("employees cannot modify properties")
	default:
		return Forbidden("only the property owner can modify it")
	}
}
