package models

// Status is the lifecycle state of a course offering.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	// StatusArchived is terminal and reachable only from published.
	// No operation archives a course yet.
	StatusArchived Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusArchived
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus returns the status named by raw, or false when unknown.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.IsValid()
}
