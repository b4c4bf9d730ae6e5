package domain

// PublishStatus enumerates the states a created post can land in.
type PublishStatus string

const (
	StatusPublish PublishStatus = "publish"
	StatusDraft   PublishStatus = "draft"
)

// PublishResult is the terminal artifact of one pipeline run. Ownership
// passes to the caller.
type PublishResult struct {
	PostID   int
	PostURL  string
	Title    string
	Day      DayNumber
	Category Category
	Status   PublishStatus
}
