// Package access turns bearer tokens into authorization decisions. Every
// privileged operation is named here and mapped to the roles allowed to
// invoke it; controllers never compare role strings themselves.
package access

import "github.com/mediciel/clinic-records/internal/core/domain"

// Operation names a privileged capability.
type Operation string

const (
	OpListAdmins     Operation = "admins.list"
	OpRegisterDoctor Operation = "doctors.register"
	OpListDoctors    Operation = "doctors.list"
	OpViewDoctor     Operation = "doctors.view"
	OpSearchDoctors  Operation = "doctors.search"
	OpUpdateDoctor   Operation = "doctors.update"
	OpDeleteDoctor   Operation = "doctors.delete"

	OpCreateRecord   Operation = "records.create"
	OpUpdateRecord   Operation = "records.update"
	OpDeleteRecord   Operation = "records.delete"
	OpReadRecord     Operation = "records.read"
	OpListOwnRecords Operation = "records.list_own"
	OpListAllRecords Operation = "records.list_all"

	OpListAudit Operation = "audit.list"
)

var (
	adminOnly     = roleSet(domain.RoleAdmin)
	doctorOnly    = roleSet(domain.RoleDoctor)
	adminOrDoctor = roleSet(domain.RoleAdmin, domain.RoleDoctor)
)

// permissions is the single source of truth for role checks.
// ReadRecord and ListOwnRecords admit admins at the role gate, but both
// resolve the caller through the doctor session store, so an admin token
// still fails there.
var permissions = map[Operation]map[domain.Role]struct{}{
	OpListAdmins:     adminOnly,
	OpRegisterDoctor: adminOnly,
	OpListDoctors:    adminOnly,
	OpDeleteDoctor:   adminOnly,
	OpListAllRecords: adminOnly,
	OpListAudit:      adminOnly,

	OpViewDoctor:    adminOrDoctor,
	OpSearchDoctors: adminOrDoctor,
	OpUpdateDoctor:  adminOrDoctor,

	OpCreateRecord: doctorOnly,
	OpUpdateRecord: doctorOnly,
	OpDeleteRecord: doctorOnly,

	OpReadRecord:     adminOrDoctor,
	OpListOwnRecords: adminOrDoctor,
}

func roleSet(roles ...domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allowed reports whether role may invoke op. Unknown operations are denied.
func Allowed(role domain.Role, op Operation) bool {
	roles, ok := permissions[op]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// RolesFor returns the roles allowed to invoke op, in a stable order.
func RolesFor(op Operation) []domain.Role {
	var out []domain.Role
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleDoctor} {
		if Allowed(r, op) {
			out = append(out, r)
		}
	}
	return out
}
