// Package config loads intentcheck settings with viper.
//
// Values resolve in three layers, later layers winning:
//
//  1. Defaults from Default()
//  2. YAML from --config, or .intentcheck/config.yml in the working directory
//  3. Environment variables: INTENTCHECK_<SECTION>_<KEY> (INTENTCHECK_CHAT_MODEL,
//     INTENTCHECK_ANALYSIS_WORKERS, ...). The API key also reads OPENAI_API_KEY.
//
// Example file:
//
//	chat:
//	  provider: openai
//	  model: gpt-3.5-turbo
//	  base_url: http://localhost:11434/v1
//	  timeout: 60s
//	analysis:
//	  chunk_limit: 12000
//	  workers: 4
//	  support_threshold: 0.5
//	storage:
//	  db_path: ~/.intentcheck
//	log:
//	  level: info
//	  format: console
package config
