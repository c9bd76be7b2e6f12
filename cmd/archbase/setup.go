package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const mcpServerName = "archbase"

// agentTarget is an editor or agent that reads MCP servers from a JSON file
// inside the project.
type agentTarget struct {
	ID          string
	DisplayName string
	Markers     []string          // any of these existing under the root means the agent is in use
	ConfigFile  string            // relative to the project root
	ServersKey  string            // "servers" (VS Code) or "mcpServers"
	Extra       map[string]string // extra entry fields, e.g. "type": "stdio"
}

var agentTargets = []agentTarget{
	{
		ID: "vscode", DisplayName: "VS Code",
		Markers:    []string{".vscode"},
		ConfigFile: filepath.Join(".vscode", "mcp.json"),
		ServersKey: "servers",
		Extra:      map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor",
		Markers:    []string{".cursor"},
		ConfigFile: filepath.Join(".cursor", "mcp.json"),
		ServersKey: "mcpServers",
	},
	{
		ID: "project", DisplayName: "Project MCP config",
		Markers:    []string{".mcp.json", ".claude"},
		ConfigFile: ".mcp.json",
		ServersKey: "mcpServers",
	},
}

type detectedAgent struct {
	target     agentTarget
	configPath string
	configured bool
}

type setupOptions struct {
	auto bool
}

func setupCmd() *cli.Command {
	return &cli.Command{
		Name:      "setup",
		Usage:     "Register the archbase MCP server with the editors used in a project",
		ArgsUsage: "[project-dir]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto",
				Usage: "Configure every detected editor without prompting",
			},
		},
		Action: func(c *cli.Context) error {
			root := "."
			if c.Args().Len() > 0 {
				root = c.Args().First()
			}
			return executeSetup(root, c.App.Reader, c.App.Writer, setupOptions{auto: c.Bool("auto")})
		},
	}
}

func detectAgents(root string) []detectedAgent {
	var found []detectedAgent
	for _, t := range agentTargets {
		for _, marker := range t.Markers {
			if _, err := os.Stat(filepath.Join(root, marker)); err != nil {
				continue
			}
			path := filepath.Join(root, t.ConfigFile)
			found = append(found, detectedAgent{
				target:     t,
				configPath: path,
				configured: hasServerEntry(path, t.ServersKey),
			})
			break
		}
	}
	return found
}

func hasServerEntry(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	servers, ok := doc[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers[mcpServerName]
	return exists
}

func serverEntry(extra map[string]string) map[string]any {
	entry := map[string]any{
		"command": "archbase",
		"args":    []any{"serve"},
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds the archbase entry under serversKey of existing,
// keeping every other key. It returns nil, nil when the entry is already
// present.
func mergeServerEntry(existing []byte, serversKey string, extra map[string]string) ([]byte, error) {
	doc := make(map[string]any)
	if len(strings.TrimSpace(string(existing))) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := doc[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[mcpServerName]; exists {
		return nil, nil
	}
	servers[mcpServerName] = serverEntry(extra)
	doc[serversKey] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeServerEntry(d detectedAgent) error {
	if err := os.MkdirAll(filepath.Dir(d.configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(d.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServerEntry(existing, d.target.ServersKey, d.target.Extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(d.configPath, merged, 0o644)
}

// promptYesNo reads one answer from r. Empty input and EOF mean yes.
func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [Y/n] ", question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	}
	return false
}

func executeSetup(root string, r io.Reader, w io.Writer, opts setupOptions) error {
	detected := detectAgents(root)
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported editors detected. Create .vscode, .cursor or .mcp.json and run setup again.")
		return nil
	}

	fmt.Fprintln(w, "Detected editors:")
	for _, d := range detected {
		if d.configured {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.target.DisplayName)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.target.DisplayName)
		}
	}
	fmt.Fprintln(w)

	in := bufio.NewReader(r)
	if !opts.auto && !promptYesNo(in, w, "Register the archbase MCP server?") {
		return nil
	}

	var failed int
	for _, d := range detected {
		if d.configured {
			continue
		}
		if !opts.auto && !promptYesNo(in, w, fmt.Sprintf("%s: add to %s?", d.target.DisplayName, d.configPath)) {
			fmt.Fprintln(w, "  skipped")
			continue
		}
		if err := writeServerEntry(d); err != nil {
			color.New(color.FgRed).Fprintf(w, "  ! %s: %v\n", d.target.DisplayName, err)
			failed++
			continue
		}
		color.New(color.FgGreen).Fprintf(w, "  + %s configured (%s)\n", d.target.DisplayName, d.configPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d editor config(s) could not be updated", failed)
	}
	return nil
}
