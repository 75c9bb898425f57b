// Copyright 2025 RepCRec Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logutil provides the background logger used across the engine.
// Protocol output (reads, commits, dump lines) goes through the reporter,
// never through here.
package logutil

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// BgLogger returns the default global logger.
func BgLogger() *zap.Logger {
	return log.L()
}

// InitLogger replaces the global logger with one at the given level.
// Diagnostics go to stderr so script output on stdout stays clean.
func InitLogger(level string) error {
	lg, props, err := log.InitLogger(&log.Config{
		Level: level,
		File:  log.FileLogConfig{},
	})
	if err != nil {
		return err
	}
	log.ReplaceGlobals(lg, props)
	return nil
}
