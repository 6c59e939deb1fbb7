package config

import (
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/marginalia/internal/defra"
	"github.com/jackzampolin/marginalia/internal/notion"
	"github.com/jackzampolin/marginalia/internal/weread"
)

// defaults returns the default configuration tree in file order.
// Durations are kept as strings so the written file stays readable.
func defaults() yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "weread", Value: yaml.MapSlice{
			{Key: "cookie", Value: "${WEREAD_COOKIE}"},
			{Key: "web_url", Value: weread.DefaultWebURL},
			{Key: "api_url", Value: weread.DefaultAPIURL},
			{Key: "timeout", Value: "30s"},
			{Key: "max_attempts", Value: 3},
			{Key: "retry_delay", Value: "5s"},
		}},
		{Key: "target", Value: yaml.MapSlice{
			{Key: "backend", Value: BackendNotion},
		}},
		{Key: "notion", Value: yaml.MapSlice{
			{Key: "token", Value: "${NOTION_TOKEN}"},
			{Key: "database_id", Value: "${NOTION_DATABASE_ID}"},
			{Key: "base_url", Value: notion.DefaultBaseURL},
			{Key: "version", Value: notion.DefaultVersion},
		}},
		{Key: "defra", Value: yaml.MapSlice{
			{Key: "url", Value: "http://localhost:" + defra.DefaultPort},
			{Key: "container_name", Value: defra.DefaultContainerName},
			{Key: "image", Value: defra.DefaultImage},
			{Key: "port", Value: defra.DefaultPort},
		}},
		{Key: "sync", Value: yaml.MapSlice{
			{Key: "book_delay", Value: "1s"},
			{Key: "full", Value: false},
			{Key: "dry_run", Value: false},
			{Key: "interval", Value: "0s"},
		}},
		{Key: "history", Value: yaml.MapSlice{
			{Key: "enabled", Value: false},
		}},
		{Key: "log", Value: yaml.MapSlice{
			{Key: "level", Value: "info"},
			{Key: "file", Value: ""},
		}},
	}
}

// defaultKeys flattens the default tree into dotted viper keys.
func defaultKeys() map[string]any {
	out := make(map[string]any)
	flatten("", defaults(), out)
	return out
}

func flatten(prefix string, tree yaml.MapSlice, out map[string]any) {
	for _, item := range tree {
		key := item.Key.(string)
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := item.Value.(yaml.MapSlice); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = item.Value
	}
}
