// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for huddle-relay and
// the huddle client.
//
// Configuration comes from at most one file, named by a --config flag
// or, failing that, the HUDDLE_CONFIG environment variable. With
// neither set, [Default] applies unchanged. Files ending in .json or
// .jsonc are read as JSON with comments and trailing commas allowed;
// anything else is YAML. Values in the file replace defaults field by
// field. Command-line flags the user set explicitly are applied by
// the binaries after loading and take precedence over the file.
//
// String fields that name paths or addresses expand ${VAR} and
// ${VAR:-default} from the environment after loading, so one file can
// serve several machines.
//
// Key exports:
//
//   - [Config] -- RelayConfig and ClientConfig sections
//   - [Default] -- built-in values
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- rejects unusable values before startup
//
// This package depends on no other huddle packages.
package config
