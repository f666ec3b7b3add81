// Package file provides file-based implementations of driven port interfaces.
// Everything lives under HomeDir(): $ESGMON_HOME, or ~/.esgmon.
//
// Adapters:
//   - ConfigStore: TOML settings in config.toml
//   - PromptStore: editable analysis prompts in prompts/, reloaded by Watch
//   - LoadRegistry/SaveRegistry: YAML source registry overlay in sources.yaml
package file
