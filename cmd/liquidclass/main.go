// Command liquidclass manages the liquid-class parameter registry as a
// CSV file: list and show entries, add or delete pairs, and exchange the
// whole table with external tools.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/liqcal/calibration-core/internal/registry"
	"github.com/liqcal/calibration-core/pkg/liquids"
	"github.com/liqcal/calibration-core/pkg/params"
)

const usage = `Usage: liquidclass [-file lc.csv] <command> [options]

Commands:
  list                      list all registry entries
  show    -pipette -liquid  print the parameters for one pair
  add     -pipette -liquid  add or replace an entry (see add -h for parameters)
  delete  -pipette -liquid  remove an entry
  export  [-out file]       write the registry as CSV (stdout by default)
  import  -in file          merge entries from a CSV file

Without -file, commands operate on the built-in defaults; mutating
commands (add, delete, import) then require -file to persist.
`

func main() {
	var file string
	flag.StringVar(&file, "file", "", "CSV file backing the registry")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := dispatch(cmd, args, file); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func dispatch(cmd string, args []string, file string) error {
	switch cmd {
	case "list":
		return cmdList(file)
	case "show":
		return cmdShow(args, file)
	case "add":
		return cmdAdd(args, file)
	case "delete":
		return cmdDelete(args, file)
	case "export":
		return cmdExport(args, file)
	case "import":
		return cmdImport(args, file)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// loadRegistry opens the backing file, or the defaults when there is none.
func loadRegistry(file string) (*registry.Registry, error) {
	if file == "" {
		return registry.NewWithDefaults(), nil
	}
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return registry.NewWithDefaults(), nil
		}
		return nil, err
	}
	defer f.Close()

	reg := registry.New()
	rowErrs, err := reg.ImportCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", file, re)
	}
	return reg, nil
}

func saveRegistry(reg *registry.Registry, file string) error {
	if file == "" {
		return fmt.Errorf("no -file given, nothing to persist to")
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := reg.ExportCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parsePair(fs *flag.FlagSet, args []string) (liquids.Pipette, liquids.Liquid, error) {
	var pipette, liquid string
	fs.StringVar(&pipette, "pipette", "", "pipette model (P20, P50, P300, P1000)")
	fs.StringVar(&liquid, "liquid", "", "liquid display name")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	pip, err := liquids.ParsePipette(pipette)
	if err != nil {
		return "", "", err
	}
	liq, err := liquids.ParseLiquid(liquid)
	if err != nil {
		return "", "", err
	}
	return pip, liq, nil
}

func cmdList(file string) error {
	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	entries := reg.List()
	fmt.Printf("%-8s %s\n", "Pipette", "Liquid")
	for _, e := range entries {
		fmt.Printf("%-8s %s\n", e.Pipette, e.Liquid)
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func cmdShow(args []string, file string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	pip, liq, err := parsePair(fs, args)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	p, ok := reg.Get(pip, liq)
	if !ok {
		return fmt.Errorf("no entry for %s / %s", pip, liq)
	}
	printVector(pip, liq, p)
	return nil
}

func printVector(pip liquids.Pipette, liq liquids.Liquid, p params.Vector) {
	fmt.Printf("%s / %s\n", pip, liq)
	fmt.Printf("  Aspiration rate:            %g µL/s\n", p.AspirationRate)
	fmt.Printf("  Aspiration delay:           %g s\n", p.AspirationDelay)
	fmt.Printf("  Aspiration withdrawal rate: %g mm/s\n", p.AspirationWithdrawalRate)
	fmt.Printf("  Dispense rate:              %g µL/s\n", p.DispenseRate)
	fmt.Printf("  Dispense delay:             %g s\n", p.DispenseDelay)
	fmt.Printf("  Blowout rate:               %g µL/s\n", p.BlowoutRate)
	fmt.Printf("  Touch tip:                  %t\n", p.TouchTip)
}

func cmdAdd(args []string, file string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	var pipette, liquid string
	var p params.Vector
	fs.StringVar(&pipette, "pipette", "", "pipette model (P20, P50, P300, P1000)")
	fs.StringVar(&liquid, "liquid", "", "liquid display name")
	fs.Float64Var(&p.AspirationRate, "aspiration-rate", 0, "aspiration rate (µL/s)")
	fs.Float64Var(&p.AspirationDelay, "aspiration-delay", 0, "aspiration delay (s)")
	fs.Float64Var(&p.AspirationWithdrawalRate, "withdrawal-rate", 0, "aspiration withdrawal rate (mm/s)")
	fs.Float64Var(&p.DispenseRate, "dispense-rate", 0, "dispense rate (µL/s)")
	fs.Float64Var(&p.DispenseDelay, "dispense-delay", 0, "dispense delay (s)")
	fs.Float64Var(&p.BlowoutRate, "blowout-rate", 0, "blowout rate (µL/s)")
	fs.BoolVar(&p.TouchTip, "touch-tip", false, "touch tip after dispense")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pip, err := liquids.ParsePipette(pipette)
	if err != nil {
		return err
	}
	liq, err := liquids.ParseLiquid(liquid)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	reg.Add(registry.Entry{Pipette: pip, Liquid: liq, Params: p})
	if err := saveRegistry(reg, file); err != nil {
		return err
	}
	fmt.Printf("Added %s / %s\n", pip, liq)
	return nil
}

func cmdDelete(args []string, file string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	pip, liq, err := parsePair(fs, args)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	if !reg.Delete(pip, liq) {
		return fmt.Errorf("no entry for %s / %s", pip, liq)
	}
	if err := saveRegistry(reg, file); err != nil {
		return err
	}
	fmt.Printf("Deleted %s / %s\n", pip, liq)
	return nil
}

func cmdExport(args []string, file string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var out string
	fs.StringVar(&out, "out", "", "output file (stdout when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	if out == "" {
		return reg.ExportCSV(os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := reg.ExportCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdImport(args []string, file string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	var in string
	fs.StringVar(&in, "in", "", "CSV file to merge from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in == "" {
		return fmt.Errorf("import requires -in")
	}

	reg, err := loadRegistry(file)
	if err != nil {
		return err
	}
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	rowErrs, err := reg.ImportCSV(f)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "Skipped %v\n", re)
	}
	if err := saveRegistry(reg, file); err != nil {
		return err
	}
	fmt.Printf("Imported %s (%d entries total, %d rows skipped)\n", in, reg.Len(), len(rowErrs))
	return nil
}
