package install

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// receiptFile records what the last successful install did. Purely
// informational: the configure skip keys on the build file, never on
// the receipt.
const receiptFile = ".cyclus-install.json"

// Receipt describes one successful install of the source tree.
type Receipt struct {
	SourceDir   string            `json:"source_dir"`
	Defines     map[string]string `json:"defines,omitempty"`
	Generator   string            `json:"generator,omitempty"`
	Threads     int               `json:"threads,omitempty"`
	InstallTime time.Time         `json:"install_time"`
}

// LoadReceipt reads the receipt an earlier install left in buildDir.
func LoadReceipt(buildDir string) (*Receipt, error) {
	data, err := os.ReadFile(filepath.Join(buildDir, receiptFile))
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (i *Installer) writeReceipt(now time.Time) error {
	r := Receipt{
		SourceDir:   i.cfg.SourceDir,
		Defines:     i.defines(),
		Generator:   i.generator(),
		Threads:     i.cfg.Threads,
		InstallTime: now,
	}
	data, err := json.MarshalIndent(&r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(i.cfg.BuildDir, receiptFile), data, 0o644)
}
