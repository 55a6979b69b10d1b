package entities

// ChatMessage is one turn of the agronomist conversation.
type ChatMessage struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}
