package dto

type ChatTextRequest struct {
	Text       string `json:"text" validate:"required,max=4000"`
	SessionId  string `json:"session_id" validate:"omitempty,max=128"`
	UseRag     *bool  `json:"use_rag"`
	Namespace  string `json:"namespace" validate:"omitempty,max=128"`
	DocumentId string `json:"document_id" validate:"omitempty,max=128"`
	Speak      bool   `json:"speak"`
}

type ChatVoiceRequest struct {
	SessionId  string `form:"session_id" validate:"omitempty,max=128"`
	UseRag     string `form:"use_rag" validate:"omitempty,oneof=true false"`
	Namespace  string `form:"namespace" validate:"omitempty,max=128"`
	DocumentId string `form:"document_id" validate:"omitempty,max=128"`
	Filename   string `validate:"required"`
	Audio      []byte `validate:"required"`
}

type ChatResponse struct {
	SessionId     string   `json:"session_id"`
	Transcription string   `json:"transcription,omitempty"`
	Reply         string   `json:"reply_text"`
	RagUsed       bool     `json:"rag_used"`
	Sources       []string `json:"sources,omitempty"`
	AudioUrl      string   `json:"audio_url,omitempty"`
}

type GreetingResponse struct {
	Greeting string `json:"greeting"`
	AudioUrl string `json:"audio_url,omitempty"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

type UploadCommentResponse struct {
	DocumentId string `json:"document_id"`
	Comment    string `json:"comment"`
	AudioUrl   string `json:"audio_url,omitempty"`
}
