// Command currencyctl runs provisioning, imports and conversions from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/damon-houk/fxconvert/internal/app"
	"github.com/damon-houk/fxconvert/internal/application/service"
	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/infrastructure/config"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

const usage = `Usage: currencyctl <command> [flags]

Commands:
  provision                        prepare the storage backend
  import                           fetch the rate feed and store new snapshots
  currencies                       list every known currency code
  convert FROM TO [AMOUNT]         convert an amount between two currencies
          [--date YYYY-MM-DD] [--json]
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return nil
	}
	command, rest := args[0], args[1:]

	switch command {
	case "provision", "import", "currencies", "convert":
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The CLI keeps stdout for results
	log := logger.NewJSONLogger(stderr, cfg.LogLevel)
	logger.SetDefaultLogger(log)

	ctx = middleware.WithRequestID(ctx, "cli-"+uuid.New().String())

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	switch command {
	case "provision":
		if err := application.Currencies.Provision(ctx); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "storage provisioned (%s)\n", cfg.Storage.Driver)
		return nil

	case "import":
		inserted, err := application.Import.Import(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "imported %d new snapshots\n", inserted)
		return nil

	case "currencies":
		codes, err := application.Currencies.ListCurrencies(ctx)
		if err != nil {
			return err
		}
		for _, code := range codes {
			fmt.Fprintln(stdout, code)
		}
		return nil

	default:
		return convert(ctx, application.Conversion, rest, stdout)
	}
}

func convert(ctx context.Context, conversions *service.ConversionService, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	date := flags.String("date", "", "rate date as YYYY-MM-DD (default today)")
	asJSON := flags.Bool("json", false, "print the result as JSON")
	if err := flags.Parse(args); err != nil {
		return err
	}

	positional := flags.Args()
	if len(positional) < 2 || len(positional) > 3 {
		return fmt.Errorf("convert expects FROM TO [AMOUNT], got %q", strings.Join(positional, " "))
	}

	opts := service.ConvertOptions{Date: *date}
	if len(positional) == 3 {
		opts.Amount = positional[2]
	}

	conversion, err := conversions.Convert(ctx, positional[0], positional[1], opts)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"from":             conversion.From.Currency,
			"to":               conversion.To.Currency,
			"rate_date":        conversion.Date().Format(entity.DateLayout),
			"amount":           conversion.FromAmount.String(),
			"converted_amount": conversion.ToAmount.String(),
			"rate":             conversion.Rate.String(),
			"reverse_rate":     conversion.ReverseRate.String(),
		})
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s %s\t=\t%s %s\n", conversion.FromFormatted(), conversion.From.Currency,
		conversion.ToFormatted(), conversion.To.Currency)
	fmt.Fprintf(w, "rate\t%s\n", conversion.Rate.StringFixed(6))
	fmt.Fprintf(w, "reverse rate\t%s\n", conversion.ReverseRate.StringFixed(6))
	fmt.Fprintf(w, "rate date\t%s\n", conversion.Date().Format(entity.DateLayout))
	return w.Flush()
}
