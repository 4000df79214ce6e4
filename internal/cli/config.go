// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig shows and changes configuration.
//
// Usage:
//
//	opsforge config [show] [--json]
//	opsforge config get KEY
//	opsforge config set KEY VALUE
//	opsforge config keys
//	opsforge config path
//	opsforge config reset [--confirm]
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Rest)

	switch parser.Subcommand() {
	case "", "show":
		return configShow(args)
	case "get":
		return configGet(parser, args)
	case "set":
		return configSet(parser, args)
	case "keys":
		return configKeys(args)
	case "path":
		return configPath(args)
	case "reset":
		return configReset(parser, args)
	default:
		return NewValidationError("subcommand", fmt.Sprintf(
			"unknown config subcommand %q (expected show, get, set, keys, path, or reset)",
			parser.Subcommand()))
	}
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		NewSuccessResponse("config", cfg).Print()
		return nil
	}

	line := func(label, value string) {
		fmt.Printf("  %s%s\n", LabelStyle.Render(label), value)
	}

	fmt.Println(TitleStyle.Render("opsforge configuration"))
	fmt.Println(DimStyle.Render("File: " + describeConfigPath(args)))
	fmt.Println()

	fmt.Println(SectionStyle.Render("General"))
	line("version:", cfg.Version)
	line("environment:", cfg.Environment)
	fmt.Println()

	fmt.Println(SectionStyle.Render("Engine"))
	line("step_timeout_secs:", util.IntToString(cfg.Engine.StepTimeoutSecs))
	line("retry_count:", util.IntToString(cfg.Engine.RetryCount))
	fmt.Println()

	eventsPath, err := cfg.EventsDBPath()
	if err != nil {
		return err
	}
	artifactsRoot, err := cfg.ArtifactsRoot()
	if err != nil {
		return err
	}

	fmt.Println(SectionStyle.Render("Stores"))
	line("events.db_path:", eventsPath)
	line("artifacts.root_dir:", artifactsRoot)
	fmt.Println()

	fmt.Println(SectionStyle.Render("Jobs"))
	line("simulated_delay_ms:", util.IntToString(cfg.Jobs.SimulatedDelayMs))
	fmt.Println()

	fmt.Println(SectionStyle.Render("Server"))
	line("addr:", cfg.Server.Addr)
	line("rate_per_second:", util.FloatToString(cfg.Server.RatePerSecond))
	line("rate_burst:", util.IntToString(cfg.Server.RateBurst))
	line("max_concurrent_tasks:", util.IntToString(cfg.Server.MaxConcurrentTasks))
	line("task_timeout_mins:", util.IntToString(cfg.Server.TaskTimeoutMins))
	fmt.Println()

	fmt.Println(SectionStyle.Render("Logging"))
	line("level:", cfg.Logging.Level)
	line("format:", cfg.Logging.Format)
	return nil
}

func configGet(parser *ArgParser, args Args) error {
	key := parser.Arg(1)
	if key == "" {
		return NewValidationError("key", "usage: opsforge config get KEY")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	value, err := cfg.Get(key)
	if err != nil {
		return WrapError("config", err)
	}

	if args.JSON {
		NewSuccessResponse("config", map[string]interface{}{key: value}).Print()
		return nil
	}
	fmt.Printf("%v\n", value)
	return nil
}

func configSet(parser *ArgParser, args Args) error {
	key, value := parser.Arg(1), parser.Arg(2)
	if key == "" || value == "" {
		return NewValidationError("arguments", "usage: opsforge config set KEY VALUE")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return WrapError("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return WrapError("config", err)
	}

	if err := saveConfig(cfg, args); err != nil {
		return WrapError("config", err)
	}

	if args.JSON {
		current, _ := cfg.Get(key)
		NewSuccessResponse("config", map[string]interface{}{key: current}).Print()
		return nil
	}
	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	fmt.Println(DimStyle.Render("Saved to " + describeConfigPath(args)))
	return nil
}

func configKeys(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	keys := config.GetAllKeys()

	if args.JSON {
		values := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			if v, err := cfg.Get(key); err == nil {
				values[key] = v
			}
		}
		NewSuccessResponse("config", values).Print()
		return nil
	}

	for _, key := range keys {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %s%v\n", LabelStyle.Render(key), v)
	}
	return nil
}

func configPath(args Args) error {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return WrapError("config", err)
		}
		path = p
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.JSON {
		NewSuccessResponse("config", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}).Print()
		return nil
	}

	fmt.Println(path)
	if !exists {
		fmt.Println(DimStyle.Render("(not created yet, defaults in effect)"))
	}
	return nil
}

func configReset(parser *ArgParser, args Args) error {
	if !args.JSON && !confirmed(parser, "Reset configuration to defaults?") {
		fmt.Println("Canceled.")
		return nil
	}
	if args.JSON && !parser.Bool("confirm") {
		return NewValidationError("confirm", "pass --confirm to reset in JSON mode")
	}

	cfg := config.Default()
	if err := saveConfig(cfg, args); err != nil {
		return WrapError("config", err)
	}

	if args.JSON {
		NewSuccessResponse("config", cfg).Print()
		return nil
	}
	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Println(DimStyle.Render("Saved to " + describeConfigPath(args)))
	return nil
}

// saveConfig writes cfg to the active config path, honoring --config.
func saveConfig(cfg *config.Config, args Args) error {
	if args.ConfigPath != "" {
		return config.SaveTOML(cfg, args.ConfigPath)
	}
	return config.Save(cfg)
}
