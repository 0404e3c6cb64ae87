package models

// ChatRequest is the inbound body of POST /chat/.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the outbound body of POST /chat/.
type ChatResponse struct {
	Response string `json:"response"`
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
