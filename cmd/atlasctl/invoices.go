package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"atlasinvoice/internal/service"

	"github.com/google/subcommands"
)

type importCmd struct {
	month string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import vendor CSV invoices into a month" }
func (*importCmd) Usage() string {
	return `atlasctl import [-month <month>] <file.csv>...

  Normalizes each CSV file into one invoice and adds it to the month
  (default: the current month). Defaulted values are reported per file.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Target month name, e.g. March (default: current month)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one CSV file is required.")
		return subcommands.ExitUsageError
	}
	month, err := monthFlag(c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	status := subcommands.ExitSuccess
	for _, name := range f.Args() {
		result, err := importFile(ctx, svc, month, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s -> %s: %d items, %s devices, %s (dropped %d of %d rows)\n",
			filepath.Base(name), result.Month, len(result.Invoice.Items),
			result.Invoice.DeviceCount, svc.FormatMoney(result.Invoice.TotalAmount),
			result.RowsDropped, result.RowsTotal)
		for _, warning := range result.Warnings {
			fmt.Printf("    row %d: %s defaulted (%s)\n", warning.Row, warning.Field, warning.Reason)
		}
		if !result.Saved {
			fmt.Fprintf(os.Stderr, "%s: not persisted: %s\n", name, result.SaveError)
			status = subcommands.ExitFailure
		}
	}
	return status
}

func importFile(ctx context.Context, svc *service.Service, month, name string) (service.UploadResult, error) {
	file, err := os.Open(name)
	if err != nil {
		return service.UploadResult{}, err
	}
	defer file.Close()

	return svc.Upload(ctx, service.UploadInput{
		Month:    month,
		FileName: name,
		Body:     file,
	})
}

type deleteCmd struct {
	month string
	id    string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete one invoice from a month" }
func (*deleteCmd) Usage() string {
	return `atlasctl delete -month <month> -id <invoice id>

  Removes the invoice and recomputes the month totals.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month holding the invoice")
	f.StringVar(&c.id, "id", "", "Invoice id, as printed by 'atlasctl show'")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month == "" || c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -month and -id are required.")
		return subcommands.ExitUsageError
	}
	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	result, err := svc.DeleteInvoice(ctx, c.month, c.id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return printMutation(svc, result)
}

type clearCmd struct {
	month string
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "remove every invoice of a month" }
func (*clearCmd) Usage() string {
	return `atlasctl clear -month <month>
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to clear")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month == "" {
		fmt.Fprintln(os.Stderr, "Error: -month is required.")
		return subcommands.ExitUsageError
	}
	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	result, err := svc.ClearMonth(ctx, c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return printMutation(svc, result)
}

func printMutation(svc *service.Service, result service.MutationResult) subcommands.ExitStatus {
	fmt.Printf("%s: %d invoices, %s devices, %s\n",
		result.Totals.Month, result.Totals.InvoiceCount,
		result.Totals.TotalDevices, svc.FormatMoney(result.Totals.TotalPaid))
	if !result.Saved {
		fmt.Fprintf(os.Stderr, "not persisted: %s\n", result.SaveError)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
