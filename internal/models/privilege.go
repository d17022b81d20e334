package models

import "fmt"

// ShutdownPrivilege is the name of the right that must be enabled in the
// process token before the kernel accepts a shutdown request.
const ShutdownPrivilege = "SeShutdownPrivilege"

// PrivilegeID is a resolved, locally unique privilege identifier.
type PrivilegeID struct {
	LowPart  uint32
	HighPart int32
}

func (id PrivilegeID) String() string {
	return fmt.Sprintf("%d:%d", id.HighPart, id.LowPart)
}
