package constants

// DocStatus is the canonical status for rows in documents.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusPending     DocStatus = "PENDING"     // placeholder row created, awaiting pipeline
	DocStatusProcessing  DocStatus = "PROCESSING"  // pipeline in flight
	DocStatusProcessed   DocStatus = "PROCESSED"   // fields + sources written
	DocStatusUnprocessed DocStatus = "UNPROCESSED" // both extraction paths failed; retryable
)
