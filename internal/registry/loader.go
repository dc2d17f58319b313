package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxOverrideFileSize = 1024 * 1024 // 1MB

// ApplyOverrides loads instruction overrides from a YAML file and applies
// them to the registry. The file maps role names to replacement instruction
// text:
//
//	roles:
//	  market_research: "Focus on the European market."
//	  code_review: "Review with an emphasis on error handling."
//
// Overrides can only replace instruction text for roles that already exist;
// unknown role names are rejected so a typo cannot silently create a stage
// nothing will ever run.
func ApplyOverrides(r *Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening overrides file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat overrides file: %w", err)
	}
	if info.Size() > maxOverrideFileSize {
		return fmt.Errorf("overrides file too large: %d bytes (max %d)", info.Size(), maxOverrideFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading overrides file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing overrides file %s: %w", path, err)
	}

	var overrides struct {
		Roles map[string]string `koanf:"roles"`
	}
	if err := k.Unmarshal("", &overrides); err != nil {
		return fmt.Errorf("unmarshaling overrides: %w", err)
	}

	for name, instruction := range overrides.Roles {
		if instruction == "" {
			return fmt.Errorf("override for role %q has empty instruction", name)
		}
		if err := r.SetInstruction(name, instruction); err != nil {
			return fmt.Errorf("applying override: %w", err)
		}
	}

	return nil
}
