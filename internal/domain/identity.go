package domain

import (
	"regexp"
	"strings"
)

var (
	studentRegNoPattern = regexp.MustCompile(`(?i)^UG\d{2}/[A-Z]{2,6}/\d{3,4}$`)
	staffIDPattern      = regexp.MustCompile(`(?i)^Staff/Adustech/\d{3,4}$`)
)

// IsValidStudentRegNo reports whether s looks like a student registration
// number, e.g. "UG20/COMS/1184". Case-insensitive.
func IsValidStudentRegNo(s string) bool {
	return studentRegNoPattern.MatchString(strings.TrimSpace(s))
}

// IsValidStaffID reports whether s looks like a staff ID, e.g.
// "Staff/Adustech/1001". Case-insensitive.
func IsValidStaffID(s string) bool {
	return staffIDPattern.MatchString(strings.TrimSpace(s))
}

// DetectRole classifies a login identifier by pattern. Student and staff
// identifiers have unambiguous formats. Email identifiers belong to admins
// when the local part is "admin", otherwise to drivers. Unclassifiable
// identifiers yield the empty role.
func DetectRole(identifier string) Role {
	id := strings.TrimSpace(identifier)
	switch {
	case IsValidStudentRegNo(id):
		return RoleStudent
	case IsValidStaffID(id):
		return RoleStaff
	case strings.Contains(id, "@"):
		if strings.HasPrefix(strings.ToLower(id), "admin@") {
			return RoleAdmin
		}
		return RoleDriver
	default:
		return ""
	}
}
