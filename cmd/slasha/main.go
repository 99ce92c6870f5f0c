package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"slasha/internal/dis"
	"slasha/internal/evalserver"
	"slasha/internal/instruction"
	"slasha/internal/interp"
	"slasha/internal/lexer"
	"slasha/internal/memcore"
	"slasha/internal/repl"
	"slasha/internal/runlog"
)

const revNumber = "10"

func header() string {
	return "Slash/A Revision " + revNumber
}

var setFlags = []cli.Flag{
	cli.UintFlag{
		Name:  "numeric, n",
		Usage: "number of numeric-literal instructions",
		Value: 32768,
	},
	cli.BoolFlag{
		Name:  "minus-gotos",
		Usage: "leave label/gotoifp out of the instruction set",
	},
}

func buildSet(c *cli.Context) *instruction.Set {
	set := instruction.NewSet()
	dis.InsertNumeric(set, uint32(c.Uint("numeric")))
	if c.Bool("minus-gotos") {
		dis.InsertFullMinusGotos(set)
	} else {
		dis.InsertFull(set)
	}
	return set
}

func readSource(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.NewExitError("usage: slasha "+c.Command.Name+" <file.sla>", 1)
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return "", cli.NewExitError(fmt.Sprintf("Cannot open file %s.", c.Args().First()), 1)
	}
	return string(data), nil
}

func parseInputs(s string) ([]float64, error) {
	input := []float64{}
	if s == "" {
		return input, nil
	}
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad input value %q", part)
		}
		input = append(input, f)
	}
	return input, nil
}

func runAction(c *cli.Context) error {
	fmt.Println("slasha -- An interpreter for the Slash/A language")
	fmt.Println(header())
	fmt.Println()

	source, err := readSource(c)
	if err != nil {
		return err
	}

	set := buildSet(c)

	prog, err := lexer.Assemble(source, set)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	input, err := parseInputs(c.String("input"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	output := []float64{}

	core := memcore.NewCore(c.Int("dsize"), c.Int("lsize"), &input, &output)

	start := time.Now()
	failed := interp.RunByteCode(set, core, prog,
		c.Int64("seed"),
		time.Duration(c.Int64("max-rtime"))*time.Second,
		c.Int("max-loop-depth"))
	elapsed := time.Since(start)

	if failed {
		fmt.Println("Program failed (time-out, loop depth, etc)!")
	}

	for i, v := range output {
		fmt.Printf("Output #%d: %g\n", i+1, v)
	}

	fmt.Println()
	fmt.Printf("Total number of operations: %s\n", humanize.Comma(int64(set.TotalOps())))
	fmt.Printf("Total number of invalid operations: %s\n", humanize.Comma(int64(set.TotalInvops())))
	fmt.Printf("Total number of inputs before an output: %s\n", humanize.Comma(int64(set.TotalInputsBeforeOutput())))
	fmt.Println()

	if dsn := c.String("log-dsn"); dsn != "" {
		store, err := runlog.Open(c.String("log-driver"), dsn)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer store.Close()
		rec := runlog.Record{
			Source:             source,
			Seed:               c.Int64("seed"),
			Failed:             failed,
			Ops:                set.TotalOps(),
			Invops:             set.TotalInvops(),
			Inputs:             set.TotalInputs(),
			Outputs:            set.TotalOutputs(),
			InputsBeforeOutput: set.TotalInputsBeforeOutput(),
			Duration:           elapsed,
		}
		if err := store.Append(&rec); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	return nil
}

func disasmAction(c *cli.Context) error {
	source, err := readSource(c)
	if err != nil {
		return err
	}

	set := buildSet(c)

	prog, err := lexer.Assemble(source, set)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	fmt.Println(lexer.Disassemble(prog, set))
	return nil
}

func listAction(c *cli.Context) error {
	fmt.Println(buildSet(c).ListAll())
	return nil
}

func replAction(c *cli.Context) error {
	fmt.Println(header())
	repl.Start(uint32(c.Uint("numeric")), c.Int("dsize"), c.Int("lsize"), c.Int64("seed"))
	return nil
}

func serveAction(c *cli.Context) error {
	var store *runlog.Store
	if dsn := c.String("log-dsn"); dsn != "" {
		var err error
		store, err = runlog.Open(c.String("log-driver"), dsn)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer store.Close()
	}

	http.Handle("/eval", evalserver.New(store))
	fmt.Printf("%s\neval server listening on %s\n", header(), c.String("addr"))
	if err := http.ListenAndServe(c.String("addr"), nil); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "slasha"
	app.Usage = "An interpreter for the Slash/A language"
	app.Version = revNumber

	coreFlags := []cli.Flag{
		cli.IntFlag{Name: "dsize", Usage: "length of the data tape", Value: 10},
		cli.IntFlag{Name: "lsize", Usage: "length of the label tape", Value: 10},
		cli.Int64Flag{Name: "seed", Usage: "random seed (negative reinitializes the generator)", Value: -2237},
	}

	logFlags := []cli.Flag{
		cli.StringFlag{Name: "log-driver", Usage: "run-log database type (sqlite, postgres, mysql)", Value: "sqlite"},
		cli.StringFlag{Name: "log-dsn", Usage: "run-log DSN; empty disables logging"},
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "assemble and run a program",
			ArgsUsage: "<file.sla>",
			Flags: append(append(append([]cli.Flag{
				cli.Int64Flag{Name: "max-rtime", Usage: "max run time in seconds (0 for a one-week cap)"},
				cli.IntFlag{Name: "max-loop-depth", Usage: "max loop nesting depth (negative disables)", Value: -1},
				cli.StringFlag{Name: "input", Usage: "comma-separated input values"},
			}, setFlags...), coreFlags...), logFlags...),
			Action: runAction,
		},
		{
			Name:      "disasm",
			Usage:     "assemble a program and print its canonical source form",
			ArgsUsage: "<file.sla>",
			Flags:     setFlags,
			Action:    disasmAction,
		},
		{
			Name:  "list",
			Usage: "print every instruction of the active set",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "numeric, n", Usage: "number of numeric-literal instructions", Value: 10},
				cli.BoolFlag{Name: "minus-gotos", Usage: "leave label/gotoifp out of the instruction set"},
			},
			Action: listAction,
		},
		{
			Name:  "repl",
			Usage: "interactive session, one program per line",
			Flags: append([]cli.Flag{
				cli.UintFlag{Name: "numeric, n", Usage: "number of numeric-literal instructions", Value: 32768},
			}, coreFlags...),
			Action: replAction,
		},
		{
			Name:  "serve",
			Usage: "WebSocket eval service for distributed search workers",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "addr", Usage: "listen address", Value: ":8017"},
			}, logFlags...),
			Action: serveAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
