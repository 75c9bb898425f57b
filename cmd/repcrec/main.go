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

// Command repcrec runs a RepCRec command script against a fresh cluster
// and prints the protocol output.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/repcrec/repcrec/internal/logutil"
	"github.com/repcrec/repcrec/internal/script"
)

func main() {
	app := &cli.App{
		Name:      "repcrec",
		Usage:     "replicated concurrency control and recovery simulator",
		ArgsUsage: "[script file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "diagnostic log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if err := logutil.InitLogger(ctx.String("log-level")); err != nil {
		return err
	}
	var in io.Reader = os.Stdin
	if ctx.NArg() > 0 {
		f, err := os.Open(ctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return script.Run(in, os.Stdout)
}
