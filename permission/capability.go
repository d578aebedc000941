package permission

import "fmt"

// Capability names an action on a resource class of the platform.
type Capability string

// Capability constants.
const (
	CapProfileRead     Capability = "profile:read"
	CapMessageRead     Capability = "message:read"
	CapMessageWrite    Capability = "message:write"
	CapRecordingRead   Capability = "recording:read"
	CapRecordingManage Capability = "recording:manage"
	CapLiveWatch       Capability = "live:watch"
	CapLiveSchedule    Capability = "live:schedule"
	CapUserManage      Capability = "user:manage"
)

// roleCapabilities maps each role to its granted capabilities.
// Ownership checks are layered on top by the route, not encoded here.
var roleCapabilities = map[Role][]Capability{
	RolePending: {
		CapProfileRead,
	},
	RoleVisitor: {
		CapProfileRead,
		CapMessageRead,
		CapMessageWrite,
		CapRecordingRead,
		CapLiveWatch,
	},
	RoleAdmin: {
		CapProfileRead,
		CapMessageRead,
		CapMessageWrite,
		CapRecordingRead,
		CapRecordingManage,
		CapLiveWatch,
		CapLiveSchedule,
		CapUserManage,
	},
}

// HasCapability reports whether role is granted c.
func HasCapability(role Role, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// CapabilitiesFor returns a copy of the capabilities granted to role, or nil
// for an unknown role.
func CapabilitiesFor(role Role) []Capability {
	caps := roleCapabilities[role]
	if caps == nil {
		return nil
	}
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// RequireCapability allows principals whose role is granted c.
func RequireCapability(c Capability) Predicate {
	return PredicateFunc(func(p Principal) Decision {
		if HasCapability(p.Role, c) {
			return Allow()
		}
		return Deny(fmt.Sprintf("role %q lacks %s", p.Role, c))
	})
}
