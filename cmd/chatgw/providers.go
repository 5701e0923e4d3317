package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and their default endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tWIRE\tDEFAULT ENDPOINT")
		for _, k := range llm.SupportedKinds() {
			endpoint := k.DefaultEndpoint()
			if endpoint == "" {
				endpoint = "(required)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", k, wire(k), endpoint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

// wire 返回 Provider 使用的流式格式
func wire(k llm.ProviderKind) string {
	switch {
	case k.IsOpenAICompatible():
		return "openai sse"
	case k == llm.ProviderClaude:
		return "named-event sse"
	case k == llm.ProviderOllama:
		return "ndjson"
	case k == llm.ProviderGoogle:
		return "gemini sse"
	default:
		return "-"
	}
}
