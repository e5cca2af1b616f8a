package transcription

import "github.com/kbukum/video-transcribe-mcp/provider"

// Backend names accepted by Config.Backend.
const (
	BackendFasterWhisper = "faster-whisper"
	BackendSidecar       = "sidecar"
)

// NewRegistry creates a new provider registry for transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
