package model

// Turn is one completed question/answer exchange in a session.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
