// Package config loads process configuration with viper.
//
// Values come from a YAML file (cmd/<service>/config.yml, ./config.yml or
// ~/.config/<service>/config.yml), then from the environment, with a .env
// file filling variables that are not already set. Environment names map to
// nested keys by splitting on underscores, so WHISPER_MODEL sets
// whisper.model and TRANSCRIPTS_DIR sets transcripts_dir.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("video-transcribe-mcp", &cfg)
package config
