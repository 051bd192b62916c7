package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srmjournal/oja/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configure the journal connection",
	Long: `Interactively set the journal's base URL, API token, and web login.

Current values are shown as defaults; press enter to keep them. Settings are
stored in an env file (see 'oja settings --help' output of --file).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		PrintSection("Settings")
		path, err := config.Path()
		if err != nil {
			return err
		}
		PrintLabelValue("File", path)
		fmt.Println()

		if cfg.BaseURL, err = promptSetting("Base URL", cfg.BaseURL, false); err != nil {
			return err
		}
		if cfg.APIToken, err = promptSetting("API token", cfg.APIToken, true); err != nil {
			return err
		}
		if cfg.Username, err = promptSetting("Username", cfg.Username, false); err != nil {
			return err
		}
		if cfg.Password, err = promptSetting("Password", cfg.Password, true); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return err
		}
		PrintSuccess("Settings saved")

		if err := cfg.Validate(); err != nil {
			PrintWarning(fmt.Sprintf("Settings are incomplete: %v", err))
		}
		return nil
	},
}

// promptSetting asks for one value, keeping the current one on empty input.
// Secrets are shown masked.
func promptSetting(label, current string, secret bool) (string, error) {
	shown := current
	if secret && current != "" {
		shown = mask(current)
	}
	question := fmt.Sprintf("%s [%s]:", label, shown)
	if current == "" {
		question = fmt.Sprintf("%s:", label)
	}
	answer, err := promptLine(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
