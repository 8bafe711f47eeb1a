// Package setup implements the interactive deskwatch setup wizard.
package setup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// configTemplate is written by the wizard. The token stays out of the config
// file so the file itself can be committed or shared.
const configTemplate = `# deskwatch configuration

telegram:
  bot_token: "${DESKWATCH_TELEGRAM_TOKEN}"
  chat_id: "%s"

watchers:
  poll_interval: "5s"
  focus: true
  apps: true
  network: true
  storage: true
  downloads: true
  downloads_dir: "%s"

history:
  enabled: true
  retention_days: 30
`

// tokenEnvVar is the variable the generated config references.
const tokenEnvVar = "DESKWATCH_TELEGRAM_TOKEN"

// Run walks the user through creating a config file at cfgPath and an env
// file at envPath holding the bot token.
func Run(cfgPath, envPath string) error {
	return run(bufio.NewReader(os.Stdin), cfgPath, envPath)
}

func run(r *bufio.Reader, cfgPath, envPath string) error {
	fmt.Println("🖥️  deskwatch setup")
	fmt.Println("──────────────────")
	fmt.Println("You need a Telegram bot token (from @BotFather) and your chat id.")
	fmt.Println()

	token, err := promptSecret(r, "Bot token: ")
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("bot token is required")
	}

	chatID, err := prompt(r, "Chat id: ")
	if err != nil {
		return fmt.Errorf("reading chat id: %w", err)
	}
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	home, _ := os.UserHomeDir()
	defaultDir := filepath.Join(home, "Downloads")
	dir, err := prompt(r, fmt.Sprintf("Watched directory [%s]: ", defaultDir))
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}
	if dir == "" {
		dir = defaultDir
	}

	if err := writeEnvFile(envPath, tokenEnvVar, token); err != nil {
		return fmt.Errorf("writing env file: %w", err)
	}
	// Set in the current process too; config.Load expands the placeholder
	// from the process environment.
	_ = os.Setenv(tokenEnvVar, token)

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	content := fmt.Sprintf(configTemplate, chatID, dir)
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Token %s saved to %s\n", mask(token), envPath)
	fmt.Printf("✅ Config written to %s\n", cfgPath)
	fmt.Println("Start with: deskwatch run")
	return nil
}

// writeEnvFile stores the token as KEY=VALUE, readable only by the owner.
// deskwatch loads it automatically when the file sits next to the config.
func writeEnvFile(path, key, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(key+"="+value+"\n"), 0600)
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal. Otherwise it
// reads from the shared reader so later prompts see the remaining input.
func promptSecret(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// mask hides all but the first characters of a secret for display.
func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
