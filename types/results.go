package types

// IssueListener is handed every issue as the engine raises it.
type IssueListener interface {
	Handle(issue Issue)
}

// IssueCollector is an IssueListener keeping issues in arrival order.
type IssueCollector struct {
	issues []Issue
}

func (c *IssueCollector) Handle(issue Issue) {
	c.issues = append(c.issues, issue)
}

// Issues returns the collected issues.
func (c *IssueCollector) Issues() []Issue {
	return c.issues
}

// AnalysisResults is the outcome of one analysis run.
type AnalysisResults struct {
	// FailedFiles are the files that could not be read or parsed.
	FailedFiles []InputFile
	// IndexedFiles counts the files a plugin accepted.
	IndexedFiles int
}
