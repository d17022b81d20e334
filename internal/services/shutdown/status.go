package shutdown

import "fmt"

// Status is the code returned by the kernel request (an NTSTATUS on windows).
type Status uint32

// Well-known status codes.
const (
	StatusSuccess           Status = 0x00000000
	StatusAccessDenied      Status = 0xC0000022
	StatusPrivilegeNotHeld  Status = 0xC0000061
	StatusProcedureNotFound Status = 0xC000007A
)

var statusNames = map[Status]string{
	StatusSuccess:           "STATUS_SUCCESS",
	StatusAccessDenied:      "STATUS_ACCESS_DENIED",
	StatusPrivilegeNotHeld:  "STATUS_PRIVILEGE_NOT_HELD",
	StatusProcedureNotFound: "STATUS_PROCEDURE_NOT_FOUND",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return fmt.Sprintf("0x%08X (%s)", uint32(s), name)
	}
	return fmt.Sprintf("0x%08X", uint32(s))
}
