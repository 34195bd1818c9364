package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-modules/internal/modules"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import modules from an export envelope",
		Long:  "Import an envelope produced by export (JSON or YAML, from --file or stdin).",
		Run:   runImport,
	}

	cmd.Flags().String("file", "", "Envelope file (default: stdin)")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")

	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	env, err := readEnvelope(data)
	if err != nil {
		exitErr("parse envelope", err)
	}

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	res := a.svc.Import(c, env)
	var events []store.Event
	for _, k := range res.Imported {
		events = append(events, store.Event{Key: k, Kind: store.EventImported, Detail: env.SourceService})
	}
	if len(res.Imported) > 0 {
		a.save(cmd, c, events...)
	}
	printJSON(res)
}

// readEnvelope decodes a JSON envelope, falling back to YAML.
func readEnvelope(data []byte) (*modules.Envelope, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if data[0] != '{' {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		b, err := json.Marshal(generic)
		if err != nil {
			return nil, err
		}
		data = b
	}
	var env modules.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
