package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go4.org/netipx"
	"gopkg.in/yaml.v3"

	"github.com/zlobste/ip6target/ipv6"
	"github.com/zlobste/ip6target/target"
)

type outputFormat string

const (
	outHuman outputFormat = "human"
	outJSON  outputFormat = "json"
	outYAML  outputFormat = "yaml"
)

var errUnknownFormat = errors.New("unknown output format")

// Execute runs the root command tree. Fatal errors are logged under the
// target component tag and end the process with status 1.
func Execute() {
	a := &app{}
	err := a.command().Execute()
	if err != nil {
		a.log().Error("fatal", "err", err)
	}
	a.closeLog()
	if err != nil {
		os.Exit(1)
	}
}

type app struct {
	format     outputFormat
	limit      int
	expanded   bool
	exclude    []string
	configPath string
	logFile    string

	logger *slog.Logger
	logOut io.Closer
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "ip6target",
		Short:         "IPv6 scan target generator",
		Long:          "ip6target produces IPv6 scan targets one per line, either from a list file or by walking every address of a prefix.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			a.setupLog(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP((*string)(&a.format), "output", "o", string(outHuman), "output format: human|json|yaml")
	flags.IntVarP(&a.limit, "limit", "n", 0, "stop after this many targets (0 = no limit)")
	flags.BoolVar(&a.expanded, "expanded", false, "print fully expanded addresses")
	flags.StringSliceVar(&a.exclude, "exclude", nil, "prefixes, addresses or start-end ranges to skip")
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to a rotated file instead of stderr")

	root.AddCommand(&cobra.Command{
		Use:   "file <path|->",
		Short: "Read targets from a file, one IPv6 address per line (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd, target.KindFile, args[0])
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "prefix <IPv6 CIDR>",
		Short: "Walk every address of a prefix after its base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd, target.KindPrefix, args[0])
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "info <IPv6 CIDR or address>",
		Short: "Show what a prefix walk would cover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.info(cmd, args[0])
		},
	})
	return root
}

func (a *app) scan(cmd *cobra.Command, kind target.Kind, input string) error {
	if a.limit < 0 {
		return fmt.Errorf("invalid --limit %d", a.limit)
	}
	src, err := target.Open(target.Config{
		Kind:    kind,
		Input:   input,
		Exclude: a.exclude,
		Stdin:   cmd.InOrStdin(),
	})
	if err != nil {
		return err
	}
	defer src.Close()
	a.log().Info("target source opened", "kind", kind, "input", input, "exclusions", len(a.exclude))

	w := bufio.NewWriter(cmd.OutOrStdout())
	r, err := newRenderer(a.format, w)
	if err != nil {
		return err
	}

	n := 0
	for a.limit == 0 || n < a.limit {
		addr, err := src.Next()
		if errors.Is(err, target.ErrExhausted) {
			break
		}
		if err != nil {
			return err
		}
		if err := r.write(a.value(addr)); err != nil {
			return err
		}
		n++
	}
	a.log().Debug("target source done", "produced", n)
	if err := r.close(); err != nil {
		return err
	}
	return w.Flush()
}

func (a *app) value(addr ipv6.Address) any {
	if a.expanded {
		return addr.Expanded()
	}
	return addr
}

func (a *app) info(cmd *cobra.Command, arg string) error {
	r, err := newRenderer(a.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if strings.Contains(arg, "/") {
		p, err := ipv6.ParsePrefix(arg)
		if err != nil {
			return err
		}
		last := p.Last()
		out := map[string]any{
			"prefix":        p.String(),
			"network":       p.Network().String(),
			"prefix_length": p.Bits(),
			"range":         netipx.RangeOfPrefix(p.Netip()).String(),
			"host_count":    p.HostCount().String(),
			"targets":       ipv6.Distance(p.Base(), last).String(),
		}
		if first, overflow := p.Base().Next(); !overflow && p.Contains(first) {
			out["first_target"] = a.value(first)
			out["last_target"] = a.value(last)
		}
		if err := r.write(out); err != nil {
			return err
		}
		return r.close()
	}
	addr, err := ipv6.Parse(arg)
	if err != nil {
		return err
	}
	out := map[string]any{
		"address":  addr.String(),
		"expanded": addr.Expanded(),
	}
	if err := r.write(out); err != nil {
		return err
	}
	return r.close()
}

// renderer writes a stream of values in one output format.
type renderer struct {
	w    io.Writer
	json *json.Encoder
	yaml *yaml.Encoder
}

func newRenderer(f outputFormat, w io.Writer) (*renderer, error) {
	r := &renderer{w: w}
	switch f {
	case outHuman:
	case outJSON:
		r.json = json.NewEncoder(w)
		r.json.SetIndent("", "  ")
	case outYAML:
		r.yaml = yaml.NewEncoder(w)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, f)
	}
	return r, nil
}

func (r *renderer) write(v any) error {
	switch {
	case r.json != nil:
		return r.json.Encode(v)
	case r.yaml != nil:
		return r.yaml.Encode(v)
	}
	_, err := fmt.Fprintln(r.w, v)
	return err
}

func (r *renderer) close() error {
	if r.yaml != nil {
		return r.yaml.Close()
	}
	return nil
}
