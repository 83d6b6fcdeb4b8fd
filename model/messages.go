package model

// AnswerMsg carries a backend reply for one channel's in-flight request
type AnswerMsg struct {
	Channel string
	Answer  string
	Err     error
}

type ProjectsMsg struct {
	Projects []string
	Err      error
}

type ProjectDetailMsg struct {
	Name   string
	Detail string
	Err    error
}

type TodoInfoMsg struct {
	Status      string
	Examples    []string
	Suggestions string
	Err         error
}

type TranscriptExportedMsg struct {
	Channel string
	Path    string
	Err     error
}

type CopiedMsg struct {
	Err error
}

type FlashTickMsg struct{}
