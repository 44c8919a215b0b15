/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"annotview/internal/config"
	"annotview/internal/crash"
	"annotview/internal/docstore"
	applog "annotview/internal/log"
	"annotview/internal/overlay/proximity"
	"annotview/internal/plugin"
	"annotview/internal/replay"
	"annotview/internal/telemetry"
	"annotview/internal/ui"
	"annotview/internal/version"
)

func usage() {
	fmt.Println("AnnotView - selection and measurement overlays")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  annotview version|-v|--version          Show version")
	fmt.Println("  annotview replay <script.yaml>...        Play overlay scripts and print the overlays")
	fmt.Println("  annotview import <document.json>...      Validate documents and save them to the configured store")
	fmt.Println("  annotview export <name> <document.json>  Write a stored document to a file")
	fmt.Println("  annotview list                           List stored documents")
	fmt.Println("  annotview ui [<document.json>]           Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	tel := telemetry.New(telemetry.FromConfig(cfg.General))
	telemetry.SetDefault(tel)
	defer tel.Close()

	crashOpts := crash.Options{Dir: crashDir()}
	defer crash.Recover(crashOpts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("AnnotView")
		fmt.Println(version.String())
		return
	case "replay":
		if len(args) < 3 {
			fmt.Println("replay requires <script.yaml>")
			usage()
			os.Exit(2)
		}
		err = runReplay(ctx, cfg, tel, args[2:])
	case "import":
		if len(args) < 3 {
			fmt.Println("import requires <document.json>")
			usage()
			os.Exit(2)
		}
		err = runImport(ctx, cfg, args[2:])
	case "export":
		if len(args) < 4 {
			fmt.Println("export requires <name> and <document.json>")
			usage()
			os.Exit(2)
		}
		err = runExport(ctx, cfg, args[2], args[3])
	case "list":
		err = runList(ctx, cfg)
	case "ui":
		var doc string
		if len(args) >= 3 {
			doc = args[2]
		}
		err = runUI(cfg, tel, doc)
	default:
		usage()
		os.Exit(2)
	}
	tel.Flush(ctx)
	if err != nil {
		l.Error("command failed", slog.String("command", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func crashDir() string {
	p, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "crash")
}

func runReplay(ctx context.Context, cfg config.AppConfig, tel *telemetry.Client, scripts []string) error {
	failed := 0
	for _, path := range scripts {
		s, err := replay.Load(path)
		if err != nil {
			return err
		}
		res, err := replay.Run(ctx, s, replay.Options{Overlay: cfg.Overlay, Out: os.Stdout, OnAction: tel.OnAction()})
		if err != nil {
			var stepErr *replay.StepError
			if !errors.As(err, &stepErr) {
				return err
			}
			failed++
			fmt.Println("FAIL", stepErr)
			continue
		}
		fmt.Printf("ok   %s (%d steps, %d checks)\n", s.Name, res.Steps, res.Checks)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(scripts))
	}
	return nil
}

func openStore(ctx context.Context, cfg config.AppConfig) (docstore.Store, error) {
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
	}
	return docstore.Open(ctx, cfg.Store)
}

func runImport(ctx context.Context, cfg config.AppConfig, paths []string) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, p := range paths {
		doc, err := docstore.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if err := st.Save(ctx, doc); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		fmt.Printf("Imported %q (%d objects)\n", doc.Name, len(doc.Objects))
	}
	return nil
}

func runExport(ctx context.Context, cfg config.AppConfig, name, path string) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	doc, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := docstore.WriteFile(path, doc); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func runList(ctx context.Context, cfg config.AppConfig) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	docs, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Printf("%-32s %4d objects  %s\n", d.Name, d.Objects, d.Updated.Format("2006-01-02 15:04"))
	}
	return nil
}

func runUI(cfg config.AppConfig, tel *telemetry.Client, doc string) error {
	var descs []proximity.Descriptor
	if len(cfg.Overlay.PluginFiles) > 0 {
		host, err := plugin.Load(cfg.Overlay.PluginFiles...)
		if err != nil {
			return err
		}
		defer host.Close()
		descs = host.Descriptors()
	}
	return ui.Run(ui.Options{
		Config:      cfg,
		Document:    doc,
		Descriptors: descs,
		OnAction:    tel.OnAction(),
		CrashDir:    crashDir(),
	})
}
