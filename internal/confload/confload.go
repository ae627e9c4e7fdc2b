// Package confload decodes service configuration files. JSON files use the
// json struct tags, HCL files use the hcl struct tags.
package confload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Load decodes the file at path into v, picking the decoder by extension.
func Load(path string, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	case ".json", "":
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}
