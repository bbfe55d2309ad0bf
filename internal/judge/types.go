package judge

// Sandbox status identifiers (Judge0 vocabulary).
const (
	StatusInQueue       = 1
	StatusProcessing    = 2
	StatusAccepted      = 3
	StatusWrongAnswer   = 4
	StatusInternalError = 13
)

// RunRequest is one (source, language, stdin) triple plus the expected output
// used for the local comparison.
type RunRequest struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
}

// Verdict is the normalized result of running code against one test case.
// The adapter is the authority on pass/fail: when the sandbox reports a
// successful run, the trimmed stdout is compared against the expected output
// locally and the status is overridden accordingly.
type Verdict struct {
	StatusID          int
	StatusDescription string
	Stdout            string
	Stderr            string
	TimeSec           float64
	MemoryKB          int
}

// Accepted reports whether the test case passed.
func (v Verdict) Accepted() bool {
	return v.StatusID == StatusAccepted
}
