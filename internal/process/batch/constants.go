package batch

const (
	logKeyBatchID   = "batch_id"
	logKeyPairs     = "pairs"
	logKeyPair      = "pair"
	logKeyUnique    = "unique"
	logKeyCalls     = "encoder_calls"
	logKeyWorkers   = "workers"
	logKeyDispatch  = "dispatch"
	logKeyCompleted = "completed"
	logKeyTotal     = "total"
	logKeyRate      = "pairs_per_sec"
	logKeyElapsed   = "elapsed"
	logKeyFailed    = "failed"
)

// Dispatch modes.
const (
	DispatchAuto       = "auto"
	DispatchParallel   = "parallel"
	DispatchSequential = "sequential"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)
