// Command jamsat solves DIMACS CNF instances, following the IPASIR exit
// code convention: 10 for satisfiable, 20 for unsatisfiable, 0 for
// indeterminate results.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	jamsat "github.com/fkutzner/jamsat-go"
	"github.com/fkutzner/jamsat-go/internal/dimacs"
)

const version = "0.2.0"

const (
	exitIndeterminate = 0
	exitUsageError    = 1
	exitSatisfiable   = 10
	exitUnsatisfiable = 20
)

type cliFlags struct {
	timeout    time.Duration
	dratPath   string
	restart    string
	noSimplify bool
	verbose    bool
	configPath string
}

func main() {
	flags := &cliFlags{}
	exitCode := exitIndeterminate

	cmd := &cobra.Command{
		Use:           "jamsat [flags] <file.cnf[.gz]>",
		Short:         "A CDCL SAT solver with DRAT certificate generation",
		Args:          cobra.ExactArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(flags, args[0])
			exitCode = code
			return err
		},
	}

	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "abort solving after this duration (0 = none)")
	cmd.Flags().StringVar(&flags.dratPath, "drat", "", "write a binary DRAT certificate to this file")
	cmd.Flags().StringVar(&flags.restart, "restart", "", "restart policy: glucose or luby")
	cmd.Flags().BoolVar(&flags.noSimplify, "no-simplify", false, "disable in-processing simplification")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "log solver progress")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML file with solver options")

	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(exitUsageError)
	}
	os.Exit(exitCode)
}

func buildOptions(flags *cliFlags) (jamsat.Options, error) {
	opts := jamsat.DefaultOptions
	if flags.configPath != "" {
		data, err := os.ReadFile(flags.configPath)
		if err != nil {
			return opts, errors.Wrapf(err, "reading config %q", flags.configPath)
		}
		if err := yaml.UnmarshalStrict(data, &opts); err != nil {
			return opts, errors.Wrapf(err, "parsing config %q", flags.configPath)
		}
	}
	switch flags.restart {
	case "":
	case "glucose":
		opts.RestartPolicy = jamsat.RestartGlucose
	case "luby":
		opts.RestartPolicy = jamsat.RestartLuby
	default:
		return opts, errors.Errorf("unknown restart policy %q", flags.restart)
	}
	if flags.noSimplify {
		opts.SimplificationInterval = 0
	}
	if flags.dratPath != "" {
		opts.DRATOutputPath = flags.dratPath
	}
	return opts, nil
}

func run(flags *cliFlags, instancePath string) (int, error) {
	log := logrus.StandardLogger()
	if flags.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	opts, err := buildOptions(flags)
	if err != nil {
		return exitUsageError, err
	}

	problem, err := dimacs.ParseFile(instancePath)
	if err != nil {
		return exitUsageError, err
	}
	log.WithFields(logrus.Fields{
		"variables": problem.NumVars,
		"clauses":   len(problem.Clauses),
	}).Info("instance loaded")

	solver, err := jamsat.New(opts)
	if err != nil {
		return exitUsageError, err
	}
	defer solver.Close()

	solver.SetLogger(func(msg string) {
		log.Debug(msg)
	})

	if flags.timeout > 0 {
		deadline := time.Now().Add(flags.timeout)
		solver.SetTerminate(func() bool {
			return time.Now().After(deadline)
		})
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(interrupts)
	go func() {
		if sig, ok := <-interrupts; ok {
			log.WithField("signal", sig).Warn("interrupt received, stopping")
			solver.Stop()
		}
	}()

	start := time.Now()
	result, err := solver.Solve()
	if err != nil {
		// Resource and certificate failures are indeterminate outcomes, not
		// usage errors.
		log.WithError(err).Error("solving failed")
		fmt.Printf("s %s\n", jamsat.StatusIndeterminate)
		return exitIndeterminate, nil
	}
	log.WithField("elapsed", time.Since(start)).Info("solving finished")

	fmt.Printf("s %s\n", result.Status())
	switch result.Status() {
	case jamsat.StatusSatisfiable:
		printModel(result.Model())
		return exitSatisfiable, nil
	case jamsat.StatusUnsatisfiable:
		return exitUnsatisfiable, nil
	default:
		return exitIndeterminate, nil
	}
}

// printModel emits the model in DIMACS convention: "v" lines of literals,
// terminated by 0.
func printModel(model []int) {
	const perLine = 16
	var sb strings.Builder
	for i, l := range model {
		if i%perLine == 0 {
			if i > 0 {
				fmt.Println(sb.String())
				sb.Reset()
			}
			sb.WriteString("v")
		}
		fmt.Fprintf(&sb, " %d", l)
	}
	if sb.Len() > 0 {
		sb.WriteString(" 0")
		fmt.Println(sb.String())
	} else {
		fmt.Println("v 0")
	}
}
