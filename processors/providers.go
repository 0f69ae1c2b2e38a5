package processors

import (
	"log"

	openai "github.com/sashabaranov/go-openai"

	"videoQuiz/config"
)

// NewOpenAIClient builds the shared API client from config. One instance is
// created at startup and injected into the providers that need it.
func NewOpenAIClient(cfg *config.Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// NewProviders selects the external providers for the pipeline. Without API
// credentials everything falls back to mocks so the service stays runnable.
func NewProviders(cfg *config.Config) (AudioDownloader, Transcriber, Generator) {
	if !cfg.HasValidAPI() {
		log.Printf("Warning: no API credentials configured, using mock providers")
		return MockDownloader{DataDir: cfg.DataDir}, MockTranscriber{}, MockGenerator{}
	}
	cli := NewOpenAIClient(cfg)
	return YtDlpDownloader{Bin: cfg.YtDlpBin, DataDir: cfg.DataDir},
		NewWhisperTranscriber(cli, cfg.ASRModel),
		NewChatGenerator(cli, cfg.ChatModel)
}
