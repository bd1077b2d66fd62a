package model

// Issue is one newsletter edition to broadcast.
type Issue struct {
	ID    string
	Title string
	HTML  string
	Text  string
}
