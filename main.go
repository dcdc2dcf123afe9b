/*
Command lurekit composes a configurable fishing lure from a base model,
accessory libraries and a parameter record, and reports its physical size.

	lurekit compose --config lurekit.toml --params lure.yaml
	lurekit watch --config lurekit.toml --params lure.yaml
	lurekit demo [--dir ./demo-assets]
	lurekit version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/spaghettifunk/lurekit/engine"
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
	"github.com/spaghettifunk/lurekit/engine/systems"
	"github.com/spaghettifunk/lurekit/testbed"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "compose":
		err = runCompose(os.Args[2:], false)
	case "watch":
		err = runCompose(os.Args[2:], true)
	case "demo":
		err = runDemo(os.Args[2:])
	case "version":
		fmt.Printf("lurekit %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		core.LogFatal(err.Error())
	}
}

func printUsage() {
	fmt.Println(`Usage: lurekit <command> [flags]

Commands:
  compose   compose once and print the report
  watch     compose, then recompose whenever an asset changes
  demo      write the sample assets to a directory and compose them
  version   print the version`)
}

type commonFlags struct {
	configPath *string
	paramsPath *string
	assetsDir  *string
	logLevel   *string
	savePath   *string
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "lurekit.toml", "Path to the engine configuration"),
		paramsPath: fs.String("params", "", "Path to a YAML parameter record"),
		assetsDir:  fs.String("assets", "", "Assets directory, overrides the configuration"),
		logLevel:   fs.String("log-level", "", "debug, info, warn or error"),
		savePath:   fs.String("save-params", "", "Write the parameters used to this path"),
	}
}

func (f commonFlags) applicationConfig(name string) *engine.ApplicationConfig {
	return &engine.ApplicationConfig{
		Name:       name,
		LogLevel:   *f.logLevel,
		ConfigPath: *f.configPath,
		ParamsPath: *f.paramsPath,
		AssetsDir:  *f.assetsDir,
	}
}

func runCompose(args []string, watch bool) error {
	name := "compose"
	if watch {
		name = "watch"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := registerCommon(fs)
	size := fs.String("size", "", "Size category, overrides the parameter record")
	_ = fs.Parse(args)

	app := newReporter(flags.applicationConfig("Lurekit"), config.DefaultParams())
	e, err := engine.New(app)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	if err := e.Initialize(); err != nil {
		return err
	}
	if *size != "" {
		p := e.Params().Clone()
		p.Size = *size
		e.SetParams(p)
	}

	if !watch {
		if _, err := e.Compose(); err != nil {
			return err
		}
		return saveParams(*flags.savePath, e.Params())
	}
	return runUntilSignal(e)
}

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	dir := fs.String("dir", "", "Directory to write the sample assets to (default: a temporary one)")
	watch := fs.Bool("watch", false, "Keep running and recompose on asset changes")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	_ = fs.Parse(args)

	assetsDir := *dir
	if assetsDir == "" {
		tmp, err := os.MkdirTemp("", "lurekit-demo-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		assetsDir = tmp
	}
	if err := testbed.WriteAssets(assetsDir); err != nil {
		return err
	}

	params := config.DefaultParams()
	params.Accessories = map[string]string{"belly_hook": "4", "tail_hook": "6", "bill": "medium"}
	params.Mask = "clear"
	params.Runner = "narrow"

	app := newReporter(&engine.ApplicationConfig{
		Name:      "Lurekit demo",
		LogLevel:  *logLevel,
		AssetsDir: assetsDir,
	}, params)
	e, err := engine.New(app)
	if err != nil {
		return err
	}
	defer e.Shutdown()
	if err := e.Initialize(); err != nil {
		return err
	}

	if *watch {
		return runUntilSignal(e)
	}
	// Walk the sizes to show that accessories keep their physical size.
	for _, size := range []string{"M", "L", "XL"} {
		p := params.Clone()
		p.Size = size
		e.SetParams(p)
		if _, err := e.Compose(); err != nil {
			return err
		}
	}
	return nil
}

func runUntilSignal(e *engine.Engine) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		cancel()
	}()

	return e.Run(ctx)
}

func saveParams(path string, p config.Params) error {
	if path == "" {
		return nil
	}
	if err := config.SaveParams(p, path); err != nil {
		return err
	}
	core.LogInfo("parameters saved to '%s'", path)
	return nil
}

func newReporter(ac *engine.ApplicationConfig, params config.Params) *engine.Configurator {
	app := &engine.Configurator{
		ApplicationConfig: ac,
		Params:            params,
	}
	app.FnOnComposed = func(r *systems.Result) error {
		report(r)
		return nil
	}
	return app
}

func report(r *systems.Result) {
	if r.Scene == nil {
		core.LogWarn("nothing composed: %s", strings.Join(r.Warnings, "; "))
		return
	}
	d := r.Dimensions
	switch {
	case d.Calibrated:
		core.LogInfo("size %s: %.2f x %.2f x %.2f cm (%.3f cm/unit)", r.Size, d.LengthCm, d.HeightCm, d.WidthCm, d.Ratio)
	case d.Approximate:
		core.LogInfo("size %s: ~%.2f x %.2f x %.2f cm (default ratio)", r.Size, d.LengthCm, d.HeightCm, d.WidthCm)
	default:
		core.LogInfo("size %s: physical dimensions unavailable", r.Size)
	}
	if r.Metadata.Name != "" {
		core.LogInfo("%s by %s, model %s", r.Metadata.Name, r.Metadata.Manufacturer, r.Metadata.Model)
	}

	slots := make([]string, 0, len(r.Attached))
	for slot := range r.Attached {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		core.LogInfo("  %s: %s", slot, r.Attached[slot])
	}
	if !r.HasAccessorySocket {
		core.LogInfo("  model has no accessory sockets")
	}

	r.Scene.WalkPre(func(n *scene.Node) bool {
		if n.Material == nil || n.Material.Gradient == nil || !n.VisibleInTree() {
			return scene.Continue
		}
		g := n.Material.Gradient
		core.LogDebug("  %s gradient (%s): bottom %s mid %s top %s", n.Name, g.Axis,
			swatch(g.ColorAt(0)), swatch(g.ColorAt(0.5)), swatch(g.ColorAt(1)))
		return scene.Continue
	})
	for _, w := range r.Warnings {
		core.LogWarn("  %s", w)
	}
}

func swatch(c math.Vec4) string {
	return colorful.Color{R: float64(c.X), G: float64(c.Y), B: float64(c.Z)}.Clamped().Hex()
}
