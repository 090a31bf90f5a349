package model

// Capability is a string code for an action a role may perform.
type Capability string

const (
	// CapExamsCreate allows creating exams with their question set.
	CapExamsCreate Capability = "exams:create"

	// CapExamsRead allows listing exams and their participants.
	CapExamsRead Capability = "exams:read"

	// CapExamsManage allows changing status, replacing questions and deleting exams.
	CapExamsManage Capability = "exams:manage"

	// CapExamsLock allows locking and unlocking exams.
	CapExamsLock Capability = "exams:lock"

	// CapExamsPublish allows publishing exam results.
	CapExamsPublish Capability = "exams:publish"

	// CapExamsTake allows joining, taking and submitting exams.
	CapExamsTake Capability = "exams:take"

	// CapUsersManage allows creating and listing user accounts.
	CapUsersManage Capability = "users:manage"

	// CapAnnouncementsWrite allows posting and removing announcements.
	CapAnnouncementsWrite Capability = "announcements:write"

	CapNotificationsRead Capability = "notifications:read"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapExamsCreate, CapExamsRead, CapExamsManage, CapExamsLock, CapExamsPublish,
		CapUsersManage, CapAnnouncementsWrite, CapNotificationsRead,
	},
	RoleTeacher: {
		CapExamsCreate, CapExamsRead, CapExamsManage, CapExamsPublish,
		CapAnnouncementsWrite, CapNotificationsRead,
	},
	RoleStudent: {
		CapExamsTake, CapNotificationsRead,
	},
}

// CapabilitiesOf returns the capabilities granted to a role.
func CapabilitiesOf(r Role) []Capability {
	caps := roleCapabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}
