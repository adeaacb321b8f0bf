package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/codescalpel/internal/observability"
	"github.com/xkilldash9x/codescalpel/internal/results/providers"
)

// ruleInfo is the listing entry of one rule.
type ruleInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	FileKinds   []string `json:"file_kinds"`
	CWE         string   `json:"cwe,omitempty"`
	Description string   `json:"description"`
	Disabled    bool     `json:"disabled"`
}

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Lists the available rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			disabled := make(map[string]bool)
			for _, id := range cfg.Rules().Disabled {
				disabled[id] = true
			}
			cwe := providers.NewInMemoryCWEProvider()

			var infos []ruleInfo
			for _, r := range ruleSet(nil, observability.GetLogger()) {
				info := ruleInfo{
					ID:          r.ID(),
					Name:        r.Name(),
					Category:    string(r.Category()),
					Severity:    string(r.Severity()),
					FileKinds:   []string{},
					Description: r.Description(),
					Disabled:    disabled[r.ID()],
				}
				for _, k := range r.FileKinds() {
					info.FileKinds = append(info.FileKinds, string(k))
				}
				info.CWE, _ = cwe.ForRule(r.ID())
				infos = append(infos, info)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode rules: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSEVERITY\tFILE KINDS\tCWE\tSTATUS")
			for _, info := range infos {
				kinds := "all"
				if len(info.FileKinds) > 0 {
					kinds = strings.Join(info.FileKinds, ",")
				}
				status := "enabled"
				if info.Disabled {
					status = "disabled"
				}
				cweID := info.CWE
				if cweID == "" {
					cweID = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", info.ID, info.Category, info.Severity, kinds, cweID, status)
			}
			return w.Flush()
		},
	}
	rulesCmd.Flags().Bool("json", false, "Print the rules as JSON")
	return rulesCmd
}
