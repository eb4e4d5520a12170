package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/towline/engine/domain"
	"github.com/WessleyAI/towline/engine/geo"
	"github.com/WessleyAI/towline/engine/quote"
	"github.com/WessleyAI/towline/engine/vin"
	"github.com/WessleyAI/towline/engine/vpic"
)

// errInvalid makes the process exit 1 after the report has been printed.
var errInvalid = errors.New("one or more VINs are invalid")

type cli struct {
	in   io.Reader
	out  io.Writer
	json bool
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}
	root := &cobra.Command{
		Use:           "vinctl",
		Short:         "Check, decode and repair Vehicle Identification Numbers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&c.json, "json", false, "Print JSON instead of text")

	root.AddCommand(
		c.newCheckCmd(),
		c.newDecodeCmd(),
		c.newFixCmd(),
		c.newExtractCmd(),
		c.newQuoteCmd(),
	)
	return root
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type checkResult struct {
	VIN        string `json:"vin"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	CheckDigit string `json:"check_digit,omitempty"`
}

func (c *cli) newCheckCmd() *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "check <vin>...",
		Short: "Validate VINs; exits 1 if any is invalid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, 0, len(args))
			bad := false
			for _, a := range args {
				s := a
				if normalize {
					s = vin.Normalize(a)
				}
				r := checkResult{VIN: s}
				if d, err := vin.CheckDigit(s); err == nil {
					r.CheckDigit = string(d)
				}
				if err := vin.Validate(s); err != nil {
					r.Error = err.Error()
					bad = true
				} else {
					r.Valid = true
				}
				results = append(results, r)
			}

			if c.json {
				if err := c.printJSON(results); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(tw, "%s\tOK\n", r.VIN)
					} else {
						fmt.Fprintf(tw, "%s\tINVALID\t%s\n", r.VIN, r.Error)
					}
				}
				tw.Flush()
			}
			if bad {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&normalize, "normalize", "n", false, "Strip separators and uppercase before checking")
	return cmd
}

func (c *cli) newDecodeCmd() *cobra.Command {
	var remote bool
	var base string
	cmd := &cobra.Command{
		Use:   "decode <vin>",
		Short: "Split a VIN into its sections, optionally asking NHTSA vPIC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := vin.Normalize(args[0])
			if remote {
				res, err := vpic.New(base).Decode(cmd.Context(), s)
				if err != nil {
					return err
				}
				if c.json {
					return c.printJSON(res)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "vin\t%s\nmake\t%s\nmodel\t%s\nyear\t%d\nbody\t%s\ntype\t%s\ngvwr\t%s\nvpic\t%s\n",
					res.VIN, res.Make, res.Model, res.ModelYear, res.BodyClass, res.VehicleType, res.GVWR, res.ErrorText)
				return tw.Flush()
			}

			d, err := vin.Decode(s)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(d)
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "vin\t%s\nwmi\t%s\nvds\t%s\ncheck\t%s\nyear\t%s\nplant\t%s\nserial\t%s\nregion\t%s\n",
				d.VIN, d.WMI, d.VDS, d.CheckDigit, yearText(d), d.Plant, d.Serial, d.Region)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Decode with NHTSA vPIC")
	cmd.Flags().StringVar(&base, "vpic-url", vpic.DefaultBaseURL, "vPIC API base URL")
	return cmd
}

func yearText(d vin.Decoded) string {
	if d.ModelYear == 0 {
		return d.YearCode + " (no model year)"
	}
	return fmt.Sprintf("%d (%s)", d.ModelYear, d.YearCode)
}

func (c *cli) newFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix <vin>",
		Short: "Print the VIN with its check digit recomputed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixed, err := vin.Fix(vin.Normalize(args[0]))
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(map[string]string{"vin": fixed})
			}
			_, err = fmt.Fprintln(c.out, fixed)
			return err
		},
	}
}

func (c *cli) newExtractCmd() *cobra.Command {
	var validOnly bool
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Find VIN-shaped tokens in text read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(c.in)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if validOnly {
				vins := vin.ExtractValid(string(data))
				if c.json {
					if vins == nil {
						vins = []string{}
					}
					return c.printJSON(vins)
				}
				for _, v := range vins {
					fmt.Fprintln(c.out, v)
				}
				return nil
			}

			matches := vin.Extract(string(data))
			if c.json {
				if matches == nil {
					matches = []vin.Match{}
				}
				return c.printJSON(matches)
			}
			for _, m := range matches {
				status := "valid"
				if !m.Valid {
					status = "invalid"
				}
				fmt.Fprintf(c.out, "%s\t%s\n", m.VIN, status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&validOnly, "valid", false, "Only print VINs that pass the check digit")
	return cmd
}

func (c *cli) newQuoteCmd() *cobra.Command {
	var vinArg, from, to, class string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate a tow charge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pickup, err := parseLocation(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dropoff, err := parseLocation(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			q, err := quote.Estimate(domain.TowRequest{
				VIN:     vin.Normalize(vinArg),
				Pickup:  pickup,
				Dropoff: dropoff,
				Class:   domain.TowClass(strings.ToLower(class)),
			}, quote.DefaultRates)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(q)
			}
			note := ""
			if q.Minimum {
				note = " (minimum charge)"
			}
			_, err = fmt.Fprintf(c.out, "%s %s tow, %.2f mi: $%.2f%s\n", q.VIN, q.Class, q.Miles, q.Total, note)
			return err
		},
	}
	cmd.Flags().StringVar(&vinArg, "vin", "", "VIN of the vehicle")
	cmd.Flags().StringVar(&from, "from", "", "Pickup as lat,lon")
	cmd.Flags().StringVar(&to, "to", "", "Dropoff as lat,lon")
	cmd.Flags().StringVar(&class, "class", string(domain.TowLight), "Tow class (light, medium, heavy)")
	cmd.MarkFlagRequired("vin")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func parseLocation(s string) (geo.Location, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Location{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return geo.Location{}, err
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return geo.Location{}, err
	}
	return geo.Location{Lat: la, Lon: lo}, nil
}
