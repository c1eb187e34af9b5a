package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/bindcore/binding"
	"github.com/wippyai/bindcore/resource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to TOML config file")
		paths      = flag.String("path", "", "Extra search paths (comma-separated)")
		verbose    = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: bind [-config file.toml] [-path dir,dir] [-v] <module>...")
		os.Exit(1)
	}

	if err := run(*configFile, *paths, *verbose, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, pathsStr string, verbose bool, names []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	binding.SetLogger(logger)

	cfg := binding.DefaultConfig()
	if configFile != "" {
		if cfg, err = binding.LoadConfig(configFile); err != nil {
			return err
		}
	}
	for _, p := range strings.Split(pathsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.SearchPaths = append(cfg.SearchPaths, p)
		}
	}

	ctx := context.Background()
	b, err := binding.NewBinder(ctx, &cfg)
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	cache, err := binding.NewCache(b, cfg.CacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	p := printer{w: os.Stdout, styled: term.IsTerminal(int(os.Stdout.Fd()))}

	var failed int
	for _, name := range names {
		r, err := cache.Get(ctx, name)
		if err != nil {
			failed++
			p.failure(name, err)
			continue
		}
		err = p.result(r)
		r.Release()
		if err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d modules failed to bind", failed, len(names))
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

type printer struct {
	w      io.Writer
	styled bool
}

func (p printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p printer) result(r *binding.Result) error {
	var ref resource.Ref
	if err := r.QueryCapability(binding.CapabilityMetadata, &ref); err != nil {
		return err
	}
	defer ref.Release()

	meta, ok := resource.As[binding.Metadata](ref)
	if !ok {
		return fmt.Errorf("metadata capability of %s has type %T", r.Name(), ref.View())
	}

	fmt.Fprintln(p.w, p.render(titleStyle, meta.Name))
	p.field("path", meta.Path)
	if meta.ModuleName != "" {
		p.field("name", meta.ModuleName)
	}
	p.field("digest", meta.Digest.String())
	p.list("exports", meta.Exports)
	p.list("imports", meta.Imports)
	fmt.Fprintln(p.w)
	return nil
}

func (p printer) field(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", p.render(labelStyle, label+":"), value)
}

func (p printer) list(label string, items []string) {
	fmt.Fprintf(p.w, "  %s %d\n", p.render(labelStyle, label+":"), len(items))
	for _, item := range items {
		fmt.Fprintf(p.w, "    - %s\n", p.render(funcStyle, item))
	}
}

func (p printer) failure(name string, err error) {
	fmt.Fprintf(p.w, "%s %s\n\n", p.render(errorStyle, name+":"), err)
}
