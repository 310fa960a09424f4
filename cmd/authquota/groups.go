package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/providers"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/services/payloads"
	"github.com/j-veylop/authquota/internal/ui/components"
)

const (
	groupLabelWidth = 22
	groupLineWidth  = 72
)

type groupsOptions struct {
	provider  string
	rulesPath string
	json      bool
}

type groupsOutput struct {
	FetchedAt *time.Time    `json:"fetchedAt,omitempty"`
	Auth      string        `json:"auth,omitempty"`
	Provider  string        `json:"provider"`
	Groups    []quota.Group `json:"groups"`
}

func newGroupsCmd() *cobra.Command {
	var opts groupsOptions

	cmd := &cobra.Command{
		Use:   "groups FILE",
		Short: "Normalize a captured quota payload into groups",
		Long: `Decode one captured quota payload and print its normalized groups.

FILE is a payload envelope as written to the payload directory
({"fetched_at", "auth", "provider", "payload"}). With --provider, FILE is
the raw provider response instead. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "decode FILE as a raw response of this provider")
	cmd.Flags().StringVar(&opts.rulesPath, "rules", os.Getenv("RULES_PATH"), "grouping rules TOML file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print groups as JSON")

	return cmd
}

func runGroups(cmd *cobra.Command, path string, opts groupsOptions) error {
	rules, err := config.LoadRules(opts.rulesPath)
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	now := time.Now()
	out := groupsOutput{Provider: opts.provider}

	if opts.provider != "" {
		name, ok := providers.Canonical(opts.provider)
		if !ok {
			return fmt.Errorf("unknown provider %q (known: %v)", opts.provider, providers.Names())
		}
		out.Provider = name
		out.Groups, err = providers.Decode(opts.provider, data, rules, now)
		if err != nil {
			return err
		}
	} else {
		var env payloads.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to decode envelope: %w", err)
		}
		if env.Provider == "" {
			return errors.Join(payloads.ErrMissingProvider, errors.New("pass --provider to decode a raw response"))
		}
		out.Auth = env.Auth
		out.Provider = env.Provider
		if !env.FetchedAt.IsZero() {
			out.FetchedAt = &env.FetchedAt
		}
		out.Groups, err = providers.Decode(env.Provider, env.Payload, rules, now)
		if err != nil {
			return err
		}
	}

	if out.Groups == nil {
		out.Groups = []quota.Group{}
	}

	w := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printGroups(w, out, now)
	return nil
}

func printGroups(w io.Writer, out groupsOutput, now time.Time) {
	header := out.Provider
	if out.Auth != "" {
		header = fmt.Sprintf("%s (%s)", out.Auth, out.Provider)
	}
	fmt.Fprintln(w, header)

	if len(out.Groups) == 0 {
		fmt.Fprintln(w, "  no quota groups")
		return
	}
	for _, g := range out.Groups {
		fmt.Fprintln(w, "  "+components.GroupBar(g, groupLabelWidth, groupLineWidth, now))
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}
