package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chitchat/internal/flagx"
	"github.com/dmitrijs2005/chitchat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DataDir        string         `json:"data_dir"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Fields absent from the file keep their value. It panics
// on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
}
