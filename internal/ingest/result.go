package ingest

import "github.com/yuruhealth/yuruhealth/internal/models"

// Status is the terminal state of one ingested payload.
type Status string

const (
	// StatusPersisted means a new record was appended.
	StatusPersisted Status = "persisted"

	// StatusSkipped means the payload matched the latest stored digest
	// for its partition (or lost a benign insert race) and no row was
	// written.
	StatusSkipped Status = "skipped"

	// StatusFailed means the payload was neither skipped nor
	// persisted; Result.Kind says why.
	StatusFailed Status = "failed"
)

// FailureKind classifies a failed ingestion.
type FailureKind string

const (
	// FailureMalformedPayload: the payload is not a well-formed
	// JSON-representable structure; no partial filtering is attempted.
	FailureMalformedPayload FailureKind = "malformed_payload"

	// FailureStorageUnavailable: the storage read or write did not
	// complete; the batch run should fail rather than silently lose
	// data.
	FailureStorageUnavailable FailureKind = "storage_unavailable"

	// FailureInvalidPartition: the partition key is incomplete or
	// names an unknown source.
	FailureInvalidPartition FailureKind = "invalid_partition"
)

// Result is the outcome of one Ingest call. Record is set only when
// Status is StatusPersisted; Kind and Err only when it is StatusFailed.
type Result struct {
	Status Status
	Kind   FailureKind
	Record *models.RawRecord
	Err    error
}

func persisted(rec *models.RawRecord) Result {
	return Result{Status: StatusPersisted, Record: rec}
}

func skipped() Result {
	return Result{Status: StatusSkipped}
}

func failed(kind FailureKind, err error) Result {
	return Result{Status: StatusFailed, Kind: kind, Err: err}
}
