package tui

type datesLoadedMsg struct {
	dates []string
}

type docLoadedMsg struct {
	path    string
	content string
}

type errMsg struct {
	err error
}
