// Package config loads stockgrid's startup configuration.
//
// # Resolution
//
// Load reads a TOML file (default ~/.config/stockgrid/config.toml). A missing
// file is not an error; every field has a default. After the file, a small
// set of environment variables override it:
//
//   - STOCKGRID_SOURCE: file, http or mongo
//   - STOCKGRID_API_URL: base URL of a catalog server
//   - STOCKGRID_DATA_FILE: JSON or YAML product file
//   - STOCKGRID_MONGO_URI: MongoDB connection string
//   - STOCKGRID_LISTEN: bind address for `stockgrid serve`
//
// LoadEnvFile pulls those variables from a .env file first, without
// replacing values already present in the environment.
//
// # TOML Format
//
//	source = "file"
//	data_file = "~/.local/share/stockgrid/products.json"
//	api_url = "http://127.0.0.1:7600"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "stockgrid"
//	mongo_collection = "products"
//	page_size = 5
//	refresh_schedule = "@every 1m"
//	state_dir = "~/.local/state/stockgrid"
//	log_path = "~/.local/state/stockgrid/stockgrid.log"
//	listen_addr = "127.0.0.1:7600"
//
// Paths accept a leading ~. The log file and the key-value store live under
// state_dir unless log_path is given.
//
// # Validation
//
// The selected source must have its location set, page_size must be in
// 1..100 and refresh_schedule, when present, must parse as a standard cron
// expression or a descriptor such as @every 30s. All problems are reported
// together.
package config
