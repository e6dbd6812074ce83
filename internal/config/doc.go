// Package config handles configuration loading for docex-gateway.
//
// # Overview
//
// Configuration comes from a YAML or TOML file with environment variable
// expansion, or, when no file exists, from environment variables alone.
// A .env file in the working directory is loaded first (LoadDotEnv) so both
// paths can see its values.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DOCEX_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/docex/gateway.yaml
//  3. ~/.config/docex/gateway.yaml
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
//	azure_openai:
//	  api_key: "${AZURE_OPENAI_KEY}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:5000"   # JSON API and browser UI
//	  grpc_addr: ""               # optional grpc.health.v1 service
//
//	upstream:
//	  document:
//	    url: "http://localhost:8001"
//	    timeout: "30s"
//	    max_retries: 2
//	  summarization:
//	    url: "http://localhost:8002"
//
//	azure_openai:
//	  api_key: "${AZURE_OPENAI_KEY}"
//	  endpoint: "${AZURE_OPENAI_ENDPOINT}"
//	  deployment: "${AZURE_OPENAI_DEPLOYMENT_NAME}"
//	  api_version: "2024-02-15-preview"
//
//	access:
//	  codes: ["${VALID_ACCESS_KEYS}"]   # plain codes or bcrypt hashes
//
//	mock:
//	  mode: "auto"   # auto, on, off
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Environment-only Mode
//
// LoadFromEnv reads WEB_UI_HOST, WEB_UI_PORT, DOCUMENT_SERVER_HOST,
// DOCUMENT_SERVER_PORT, SUMMARIZATION_SERVER_HOST, SUMMARIZATION_SERVER_PORT,
// AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT_NAME,
// AZURE_OPENAI_API_VERSION, VALID_ACCESS_KEYS, DOCEX_MOCK, DOCEX_GRPC_ADDR,
// LOG_LEVEL and LOG_FORMAT.
package config
