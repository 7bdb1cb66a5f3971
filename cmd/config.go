package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codereview"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage codereview configuration.

Without a subcommand the effective configuration is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write config.yaml with the current values",
		RunE:  func(cmd *cobra.Command, args []string) error { return configInitRun() },
	}
	initCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")

	configCmd.AddCommand(initCmd,
		&cobra.Command{
			Use:   "show",
			Short: "Show each key with its value and source",
			RunE:  func(cmd *cobra.Command, args []string) error { return configShowRun() },
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Open config.yaml in $EDITOR",
			RunE:  func(cmd *cobra.Command, args []string) error { return configEditRun() },
		},
	)
	rootCmd.AddCommand(configCmd)
}

// configTemplate renders config.yaml with a comment per key.
const configTemplate = `# codereview configuration
# See: codereview config show (for effective values and sources)

# Gateway base URL used by review/refactor/chat. Empty runs the gateway
# in process.
api_url: "{{ .APIURL }}"

# Port for 'codereview serve' (env: CODEREVIEW_PORT or PORT)
port: {{ .Port }}

# Analysis backend: "stub" (deterministic rules) or "anthropic"
backend: "{{ .Backend }}"

# Anthropic backend settings
anthropic:
  # API key (prefer the ANTHROPIC_API_KEY env var)
  # api_key: ""
  model: "{{ .AnthropicModel }}"

client:
  # Upper bound for one gateway call
  timeout: "{{ .ClientTimeout }}"

server:
  # Upper bound for one request handler
  request_timeout: "{{ .RequestTimeout }}"

# State directory for the pid file and server log (default: ~/.config/codereview)
# state_dir: {{ .StateDir }}

log:
  # debug, info, warn or error
  level: "{{ .LogLevel }}"
`

var configTmpl = template.Must(template.New("config").Parse(configTemplate))

type configTemplateData struct {
	APIURL         string
	Port           int
	Backend        string
	AnthropicModel string
	ClientTimeout  string
	RequestTimeout string
	StateDir       string
	LogLevel       string
}

// configKey is one documented setting and the env vars that override it.
type configKey struct {
	Key     string
	EnvVars []string
	Secret  bool
}

var configKeys = []configKey{
	{Key: "api_url", EnvVars: []string{"CODEREVIEW_API_URL"}},
	{Key: "port", EnvVars: []string{"CODEREVIEW_PORT", "PORT"}},
	{Key: "backend", EnvVars: []string{"CODEREVIEW_BACKEND"}},
	{Key: "anthropic.api_key", EnvVars: []string{"CODEREVIEW_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}, Secret: true},
	{Key: "anthropic.model", EnvVars: []string{"CODEREVIEW_ANTHROPIC_MODEL"}},
	{Key: "client.timeout", EnvVars: []string{"CODEREVIEW_CLIENT_TIMEOUT"}},
	{Key: "server.request_timeout", EnvVars: []string{"CODEREVIEW_SERVER_REQUEST_TIMEOUT"}},
	{Key: "state_dir", EnvVars: []string{"CODEREVIEW_STATE_DIR"}},
	{Key: "log.level", EnvVars: []string{"CODEREVIEW_LOG_LEVEL"}},
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// renderConfig fills the config template from the effective viper values.
func renderConfig() ([]byte, error) {
	var buf bytes.Buffer
	err := configTmpl.Execute(&buf, configTemplateData{
		APIURL:         viper.GetString("api_url"),
		Port:           viper.GetInt("port"),
		Backend:        viper.GetString("backend"),
		AnthropicModel: viper.GetString("anthropic.model"),
		ClientTimeout:  viper.GetDuration("client.timeout").String(),
		RequestTimeout: viper.GetDuration("server.request_timeout").String(),
		StateDir:       viper.GetString("state_dir"),
		LogLevel:       viper.GetString("log.level"),
	})
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return buf.Bytes(), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting %s", cfgPath)
	}

	data, err := renderConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	return nil
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	fileKeys, err := configFileKeys(cfgPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		ui.Info("Config file: (none)")
	case err != nil:
		ui.Warning("Config file %s unreadable: %v", cfgPath, err)
	default:
		ui.Info("Config file: %s", cfgPath)
	}

	table := ui.Table([]string{"KEY", "VALUE", "SOURCE"})
	for _, k := range configKeys {
		val := viper.GetString(k.Key)
		if k.Secret {
			val = maskSecret(val)
		}
		_ = table.Append([]string{k.Key, val, detectSource(k.Key, k.EnvVars, fileKeys)})
	}
	return table.Render()
}

// configFileKeys returns the dotted keys that have a scalar value in the YAML
// file at path.
func configFileKeys(path string) (map[string]bool, error) {
	keys := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return keys, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return keys, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) > 0 {
		collectKeys(doc.Content[0], "", keys)
	}
	return keys, nil
}

func collectKeys(n *yaml.Node, prefix string, keys map[string]bool) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		if val := n.Content[i+1]; val.Kind == yaml.MappingNode {
			collectKeys(val, key, keys)
		} else {
			keys[key] = true
		}
	}
}

// detectSource names where a key's value comes from. The first set env var
// wins over the file, and the file over the default.
func detectSource(key string, envVars []string, fileKeys map[string]bool) string {
	for _, name := range envVars {
		if _, ok := os.LookupEnv(name); ok {
			return "env: " + name
		}
	}
	if fileKeys[key] {
		return "file"
	}
	return "default"
}

// maskSecret hides all but the last four characters of a secret.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return errors.New("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err != nil {
		return fmt.Errorf("config file not found: %s (run 'codereview config init' first)", cfgPath)
	}

	c := exec.Command(editor, cfgPath)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
