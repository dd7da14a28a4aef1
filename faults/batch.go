package faults

// ItemResult is the outcome of one sub-operation in a batch.
type ItemResult struct {
	// Operation identifies the sub-operation, e.g. "mail.list:page3".
	Operation string

	// Value is the sub-operation result, nil on failure.
	Value []byte

	// Err is the sub-operation failure, nil on success.
	Err error
}

// Failure pairs a failed sub-operation with its classified error.
type Failure struct {
	Operation string
	Err       *Classified
}

// Partition splits batch results into successes and classified failures
// without aborting the batch. Order is preserved within each slice.
func Partition(results []ItemResult) (succeeded []ItemResult, failed []Failure) {
	for _, r := range results {
		if r.Err == nil {
			succeeded = append(succeeded, r)
			continue
		}
		failed = append(failed, Failure{Operation: r.Operation, Err: Classify(r.Err)})
	}
	return succeeded, failed
}
