package tools

// Tool names.
const (
	NameTranscribeURL   = "transcribe_url"
	NameTranscribeFile  = "transcribe_file"
	NameListTranscripts = "list_transcripts"
)

// DefaultListLimit is used when list_transcripts is called without limit.
const DefaultListLimit = 20

// Languages offered in the tool schemas. Other codes are passed through to
// the engine unchanged.
var Languages = []string{"ru", "en", "auto"}

// Tool is one entry of the published tool list.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the JSON Schema of a tool's arguments object.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string   `json:"type"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description"`
}

// Definitions returns the tools in publication order.
func Definitions() []Tool {
	return []Tool{
		{
			Name:        NameTranscribeURL,
			Description: "Download and transcribe a video from YouTube, Instagram, or other platforms to text",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"url": {
						Type:        "string",
						Description: "Video URL (YouTube, Instagram Reels, VK, TikTok, etc.)",
					},
					"language": {
						Type:        "string",
						Enum:        Languages,
						Description: "Language of the video (default: ru)",
					},
				},
				Required: []string{"url"},
			},
		},
		{
			Name:        NameTranscribeFile,
			Description: "Transcribe a local audio/video file to text",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {
						Type:        "string",
						Description: "Absolute path to audio/video file",
					},
					"language": {
						Type:        "string",
						Enum:        Languages,
						Description: "Language of the audio (default: ru)",
					},
				},
				Required: []string{"file_path"},
			},
		},
		{
			Name:        NameListTranscripts,
			Description: "List all saved transcripts",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"limit": {
						Type:        "integer",
						Description: "Maximum number of transcripts to list (default: 20)",
					},
				},
			},
		},
	}
}
