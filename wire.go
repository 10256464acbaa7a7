package tryon

// Request and response bodies of the generateContent endpoint.
// []byte fields travel as standard base64 strings, which is what the service
// expects for inline image data.

// ContentRequest is the JSON body posted to generateContent.
type ContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one conversational turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either a text fragment or an inline binary blob.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob carries inline binary data.
type Blob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data"`
}

// GenerationConfig holds output options.
type GenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// ContentResponse is the JSON body of a successful generateContent reply.
type ContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content *Content `json:"content,omitempty"`
}

// ErrorResponse is the JSON body of a failed reply.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
