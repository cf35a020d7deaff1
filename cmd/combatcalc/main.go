// Command combatcalc computes the exact outcome distribution of battle
// scenario files and prints a report for each.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/config"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/effects"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/logging"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/scenario"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type report struct {
	file scenario.File
	out  combat.CalculationOutput
}

func run(args []string, w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("combatcalc", flag.ContinueOnError)
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "combat rounds resolved before the rest is undetermined")
	fs.IntVar(&cfg.SimplifyTarget, "simplify", cfg.SimplifyTarget, "collapse roll tables larger than this (0 = exact)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "scenarios computed in parallel")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: combatcalc [flags] scenario.yaml...")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine := combat.NewEngine(catalog.Default(), effects.Default(), combat.Options{
		MaxRounds:      cfg.MaxRounds,
		SimplifyTarget: cfg.SimplifyTarget,
		Logger:         logger,
	})

	reports := make([]report, fs.NArg())
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, path := range fs.Args() {
		i, path := i, path
		g.Go(func() error {
			f, err := scenario.Load(path)
			if err != nil {
				return err
			}
			in, err := f.Input()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out, err := engine.Compute(in)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("scenario computed", zap.String("scenario", f.Name), zap.Int("stages", len(out.Stages)))
			reports[i] = report{file: f, out: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		printReport(w, r)
	}
	return nil
}

func printReport(w io.Writer, r report) {
	fmt.Fprintf(w, "=== %s (%s) ===\n", r.file.Name, r.file.CombatType)
	if r.out.Empty() {
		fmt.Fprintf(w, "nothing to resolve\n\n")
		return
	}
	v := r.out.Victors
	fmt.Fprintf(w, "attacker %6.2f%%  defender %6.2f%%  draw %6.2f%%", 100*v.Attacker, 100*v.Defender, 100*v.Draw)
	if v.Undetermined > 0 {
		fmt.Fprintf(w, "  undetermined %6.2f%%", 100*v.Undetermined)
	}
	fmt.Fprintln(w)

	if len(r.out.Stages) > 0 {
		fmt.Fprintf(w, "\n%-24s %8s %14s %14s\n", "stage", "reached", "hits att/def", "landed att/def")
		for _, s := range r.out.Stages {
			fmt.Fprintf(w, "%-24s %7.2f%% %6.2f/%-7.2f %6.2f/%-7.2f\n",
				s.Key(), 100*s.Reached,
				s.ExpectedHits[combat.Attacker], s.ExpectedHits[combat.Defender],
				s.AssignedHits[combat.Attacker], s.AssignedHits[combat.Defender])
		}
	}

	fmt.Fprintln(w)
	for _, side := range combat.Sides {
		fmt.Fprintf(w, "%s survivors: %s\n", side, survivorLine(r.out.Survivors[side]))
	}
	if d := r.out.Diagnostics; d != nil {
		fmt.Fprintf(w, "simplified %d tables (max %.0f branches, %.2g moved), memo %d/%d\n",
			d.Simplifications, d.MaxBranchCount, d.Redistributed, d.MemoHits, d.MemoHits+d.MemoMisses)
	}
	fmt.Fprintln(w)
}

func survivorLine(s combat.SurvivorStats) string {
	types := make([]catalog.UnitType, 0, len(s.Expected))
	for t := range s.Expected {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	parts := make([]string, 0, len(types))
	for _, t := range types {
		if s.Expected[t] > 0 {
			parts = append(parts, fmt.Sprintf("%s %.2f", t, s.Expected[t]))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
