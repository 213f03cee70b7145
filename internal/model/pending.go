package model

// StatusPending is the only status a pending-student record carries.
const StatusPending = "Pending"

// PendingStudent marks a student known to be mid-exam via heartbeat.
// Timestamp is the last heartbeat time and is refreshed in place.
type PendingStudent struct {
	StudentName string `json:"studentName"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}

// SavePendingRequest is the heartbeat payload. Timestamp is optional;
// the server substitutes the current time when absent.
type SavePendingRequest struct {
	StudentName string `json:"studentName" binding:"required"`
	Timestamp   string `json:"timestamp"`
}

// RemovePendingRequest removes a student from the pending list.
type RemovePendingRequest struct {
	StudentName string `json:"studentName" binding:"required"`
}
