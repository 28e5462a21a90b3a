package types

// Diagnostic is what a rule reports: a location and a message. The engine
// turns it into an Issue by attaching the rule metadata and the input file.
type Diagnostic struct {
	StartLine       int
	StartLineOffset int
	EndLine         int
	EndLineOffset   int
	Message         string
}
