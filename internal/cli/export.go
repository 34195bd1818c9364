package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/modules"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export this service's modules for another service",
		Long: "Write an export envelope holding every module whose identifier was minted by this\n" +
			"service. Use -f yaml for YAML output.",
		Run: runExport,
	}

	cmd.Flags().String("target", "", "Target service id (required)")
	cmd.Flags().StringP("type", "t", "", "Only export modules of this type")
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	cmd.MarkFlagRequired("target")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	target, _ := cmd.Flags().GetString("target")
	output, _ := cmd.Flags().GetString("output")
	typeStr, _ := cmd.Flags().GetString("type")

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	if typeStr != "" {
		t, err := model.ParseType(typeStr)
		if err != nil {
			exitErr("export", err)
		}
		c = onlyType(c, t)
	}

	env, err := a.svc.Export(c, target)
	if err != nil {
		exitErr("export", err)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			exitErr("create output", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeEnvelope(w, env, formatFlag); err != nil {
		exitErr("export", err)
	}
}

// onlyType returns the subset of c holding modules of type t. The modules
// are shared, not copied.
func onlyType(c model.Collection, t model.Type) model.Collection {
	out := model.Collection{}
	for _, key := range modules.ByType(c, t) {
		out[key] = c[key]
	}
	return out
}

// writeEnvelope encodes v as indented JSON, or as YAML with the same field
// names as the JSON form.
func writeEnvelope(w io.Writer, v any, format string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "yaml", "yml":
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case "json", "text", "":
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	return fmt.Errorf("unknown export format %q (json, yaml)", format)
}
