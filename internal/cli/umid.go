package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/umid"
)

func init() {
	umidCmd := &cobra.Command{
		Use:   "umid",
		Short: "Generate and inspect module identifiers",
	}

	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate identifiers",
		Run:   runUMIDGenerate,
	}
	genCmd.Flags().StringP("type", "t", "", "Module type (required)")
	genCmd.Flags().String("keywords", "", "Context keywords (comma-separated)")
	genCmd.Flags().IntP("count", "n", 1, "Number of identifiers")
	genCmd.MarkFlagRequired("type")

	parseCmd := &cobra.Command{
		Use:   "parse <identifier>",
		Short: "Decode an identifier",
		Args:  cobra.ExactArgs(1),
		Run:   runUMIDParse,
	}

	hashCmd := &cobra.Command{
		Use:   "hash <keyword>...",
		Short: "Print the context hash of a keyword set",
		Run:   runUMIDHash,
	}

	umidCmd.AddCommand(genCmd, parseCmd, hashCmd)
	RootCmd.AddCommand(umidCmd)
}

func runUMIDGenerate(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	keywords, _ := cmd.Flags().GetString("keywords")
	count, _ := cmd.Flags().GetInt("count")

	cfg := loadConfig()
	gen, err := umid.NewGenerator(cfg.Service)
	if err != nil {
		exitErr("generator", err)
	}

	reqs := make([]umid.Request, count)
	for i := range reqs {
		reqs[i] = umid.Request{ModuleType: typ, Keywords: splitList(keywords)}
	}
	ids, err := gen.GenerateBatch(reqs)
	if err != nil {
		exitErr("generate", err)
	}
	if formatFlag == "text" {
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}
	printJSON(ids)
}

func runUMIDParse(cmd *cobra.Command, args []string) {
	p, ok := umid.Parse(args[0])
	if !ok {
		printJSON(map[string]any{"valid": false, "input": args[0]})
		return
	}
	printJSON(map[string]any{
		"valid":       true,
		"service":     p.Service,
		"moduleType":  p.ModuleType,
		"contextHash": p.ContextHash,
		"timestamp":   p.Timestamp,
		"createdAt":   p.ISOTime(),
		"random":      p.Random,
	})
}

func runUMIDHash(cmd *cobra.Command, args []string) {
	fmt.Println(umid.ContextHash(args))
}
