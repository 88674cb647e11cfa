package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"atlasinvoice/internal/service"

	"github.com/google/subcommands"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

type monthsCmd struct{}

func (*monthsCmd) Name() string     { return "months" }
func (*monthsCmd) Synopsis() string { return "print the totals of every month" }
func (*monthsCmd) Usage() string {
	return `atlasctl months
`
}

func (*monthsCmd) SetFlags(*flag.FlagSet) {}

func (*monthsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	w := newTable()
	fmt.Fprintln(w, "MONTH\tINVOICES\tDEVICES\tPAID")
	for _, totals := range svc.Months() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", totals.Month, totals.InvoiceCount, totals.TotalDevices, svc.FormatMoney(totals.TotalPaid))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type showCmd struct {
	month string
	items bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print the invoices of a month" }
func (*showCmd) Usage() string {
	return `atlasctl show [-month <month>] [-items]

  Lists the invoices of the month (default: current month) with their ids.
  With -items, every line item is printed with its display date.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to show (default: current month)")
	f.BoolVar(&c.items, "items", false, "Print line items instead of invoices")
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	detail, err := svc.MonthDetail(month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s: %d invoices, %s devices, %s\n\n", detail.Totals.Month, detail.Totals.InvoiceCount, detail.Totals.TotalDevices, detail.Display.TotalPaid)
	w := newTable()
	if c.items {
		fmt.Fprintln(w, "DATE\tMODEL\tIMEI\tQTY\tPRICE\tFILE")
		for _, item := range detail.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", item.DisplayDate, item.Model, orNA(item.IMEI), item.Quantity, svc.FormatMoney(item.Price), item.FileName)
		}
	} else {
		fmt.Fprintln(w, "ID\tUPLOADED\tFILE\tDEVICES\tTOTAL")
		for _, inv := range detail.Invoices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.UploadedAt.Format("2006-01-02 15:04"), inv.FileName, inv.DeviceCount, svc.FormatMoney(inv.TotalAmount))
		}
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type dashboardCmd struct {
	filter string
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "print revenue, averages and top devices" }
func (*dashboardCmd) Usage() string {
	return `atlasctl dashboard [-filter year|<month>]
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.filter, "filter", service.FilterYear, "'year' or a month name")
}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	dash, err := svc.Dashboard(c.filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Filter:        %s\n", dash.Filter)
	fmt.Printf("Devices:       %s\n", dash.TotalDevices)
	fmt.Printf("Revenue:       %s\n", dash.Display.TotalRevenue)
	fmt.Printf("Average price: %s\n", dash.Display.AveragePrice)
	fmt.Printf("Invoices:      %d\n\n", dash.InvoiceCount)

	w := newTable()
	fmt.Fprintln(w, "MONTH\tREVENUE")
	for _, point := range dash.Series {
		fmt.Fprintf(w, "%s\t%s\n", point.Label, svc.FormatMoney(point.Revenue))
	}
	w.Flush()

	if len(dash.TopDevices) == 0 {
		fmt.Println("\nNo devices sold yet.")
		return subcommands.ExitSuccess
	}
	fmt.Println()
	w = newTable()
	fmt.Fprintln(w, "TOP DEVICE\tUNITS\tREVENUE")
	for _, device := range dash.TopDevices {
		fmt.Fprintf(w, "%s\t%s\t%s\n", device.Model, device.Units, device.Display)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "find devices by IMEI or model" }
func (*searchCmd) Usage() string {
	return `atlasctl search <query>

  Case-insensitive substring match on IMEI and model across all months.
`
}

func (*searchCmd) SetFlags(*flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search query is required.")
		return subcommands.ExitUsageError
	}
	query := strings.Join(f.Args(), " ")

	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	hits, err := svc.Search(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if len(hits) == 0 {
		fmt.Printf("No devices found matching %q.\n", query)
		return subcommands.ExitSuccess
	}

	w := newTable()
	fmt.Fprintln(w, "MONTH\tMODEL\tIMEI\tPRICE\tFILE")
	for _, hit := range hits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", hit.Month, hit.Model, orNA(hit.IMEI), hit.Display, hit.FileName)
	}
	w.Flush()
	suffix := "s"
	if len(hits) == 1 {
		suffix = ""
	}
	fmt.Printf("\n%d result%s found for %q\n", len(hits), suffix, query)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	month  string
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a month as CSV or xlsx" }
func (*exportCmd) Usage() string {
	return `atlasctl export [-month <month>] [-format csv|xlsx] [-o <path>]

  Writes the line items of the month in the import column layout, so the
  CSV can be imported again. xlsx adds an Invoices sheet.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to export (default: current month)")
	f.StringVar(&c.format, "format", "csv", "Output format: csv or xlsx")
	f.StringVar(&c.output, "o", "", "Output file (default: <month>-items.<format>)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month, err := monthFlag(c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	format, err := service.ParseExportFormat(c.format)
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

	var buf bytes.Buffer
	if _, err := svc.ExportMonth(&buf, month, format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	output := c.output
	if output == "" {
		output = format.FileName(month)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %s\n", output)
	return subcommands.ExitSuccess
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
